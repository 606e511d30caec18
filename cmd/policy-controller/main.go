package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
	"k8s.io/klog/v2"
	gatewayclient "sigs.k8s.io/gateway-api/pkg/client/clientset/versioned"
	gatewayinformers "sigs.k8s.io/gateway-api/pkg/client/informers/externalversions"

	policyv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/policy/v1alpha1"
	workloadv1alpha1 "github.com/meshgate/policy-controller/pkg/apis/workload/v1alpha1"
	"github.com/meshgate/policy-controller/pkg/discovery"
	"github.com/meshgate/policy-controller/pkg/index"
	"github.com/meshgate/policy-controller/pkg/logging"
	"github.com/meshgate/policy-controller/pkg/policy"
	"github.com/meshgate/policy-controller/pkg/server"
	"github.com/meshgate/policy-controller/pkg/signals"
	"github.com/meshgate/policy-controller/pkg/status"
	"github.com/meshgate/policy-controller/pkg/version"
	"github.com/meshgate/policy-controller/pkg/watcher"
)

var (
	masterURL               string
	kubeconfig              string
	logLevel                string
	zapEncoding             string
	zapReplaceGlobals       bool
	port                    string
	grpcAddr                string
	clusterNetworks         string
	probeNetworks           string
	identityDomain          string
	clusterDomain           string
	defaultPolicy           string
	detectTimeout           time.Duration
	patchTimeout            time.Duration
	resyncInterval          time.Duration
	threadiness             int
	enableLeaderElection    bool
	leaderElectionNamespace string
	ver                     bool
)

func init() {
	flag.StringVar(&kubeconfig, "kubeconfig", "", "Path to a kubeconfig. Only required if out-of-cluster.")
	flag.StringVar(&masterURL, "master", "", "The address of the Kubernetes API server. Overrides any value in kubeconfig. Only required if out-of-cluster.")
	flag.StringVar(&logLevel, "log-level", "info", "Log level can be: debug, info, warning, error.")
	flag.StringVar(&zapEncoding, "zap-encoding", "json", "Zap logger encoding.")
	flag.BoolVar(&zapReplaceGlobals, "zap-replace-globals", false, "Whether to change the logging level of the global zap logger.")
	flag.StringVar(&port, "port", "9990", "Admin server port.")
	flag.StringVar(&grpcAddr, "grpc-addr", ":8090", "Policy discovery gRPC listen address.")
	flag.StringVar(&clusterNetworks, "cluster-networks", "10.0.0.0/8,100.64.0.0/10,172.16.0.0/12,192.168.0.0/16", "Comma-separated pod network CIDRs.")
	flag.StringVar(&probeNetworks, "probe-networks", "", "Comma-separated CIDRs kubelets probe from; empty authorizes only the node's own addresses.")
	flag.StringVar(&identityDomain, "identity-domain", "identity.meshgate.cluster.local", "Suffix for service account mesh identities.")
	flag.StringVar(&clusterDomain, "cluster-domain", "cluster.local", "Cluster DNS zone.")
	flag.StringVar(&defaultPolicy, "default-inbound-policy", string(policy.AllUnauthenticated), "Access policy for ports no Server selects.")
	flag.DurationVar(&detectTimeout, "detect-timeout", 10*time.Second, "Protocol detection window for Servers without a declared protocol.")
	flag.DurationVar(&patchTimeout, "status-patch-timeout", 5*time.Second, "Timeout for a single status patch request.")
	flag.DurationVar(&resyncInterval, "resync-interval", 30*time.Second, "Kubernetes informer resync interval.")
	flag.IntVar(&threadiness, "threadiness", 2, "Status reconciler worker concurrency.")
	flag.BoolVar(&enableLeaderElection, "enable-leader-election", false, "Enable leader election for the status reconciler.")
	flag.StringVar(&leaderElectionNamespace, "leader-election-namespace", "kube-system", "Namespace used to create the leader election lease.")
	flag.BoolVar(&ver, "version", false, "Print version")
}

func main() {
	flag.Parse()

	if ver {
		fmt.Println("policy-controller version", version.VERSION, "revision", version.REVISION)
		os.Exit(0)
	}

	logger, err := logging.NewLoggerWithEncoding(logLevel, zapEncoding)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	if zapReplaceGlobals {
		zap.ReplaceGlobals(logger.Desugar())
	}
	klog.SetLogger(zapr.NewLogger(logger.Desugar()))

	defer logger.Sync()

	stopCh := signals.SetupSignalHandler()

	cluster, err := clusterInfo()
	if err != nil {
		logger.Fatalf("Error in cluster configuration: %v", err)
	}

	cfg, err := clientcmd.BuildConfigFromFlags(masterURL, kubeconfig)
	if err != nil {
		logger.Fatalf("Error building kubeconfig: %v", err)
	}

	kubeClient, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		logger.Fatalf("Error building kubernetes clientset: %v", err)
	}

	dynClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		logger.Fatalf("Error building dynamic client: %v", err)
	}

	gatewayClient, err := gatewayclient.NewForConfig(cfg)
	if err != nil {
		logger.Fatalf("Error building gateway clientset: %v", err)
	}

	logger.Infof("Starting policy-controller version %s revision %s", version.VERSION, version.REVISION)

	k8sVersion, err := kubeClient.Discovery().ServerVersion()
	if err != nil {
		logger.Fatalf("Error calling Kubernetes API: %v", err)
	}
	logger.Infof("Connected to Kubernetes API %s", k8sVersion)

	reconciler := status.NewReconciler(dynClient, logger, patchTimeout)
	ix := index.New(logger, cluster, reconciler, index.NewMetrics(true))

	kubeInformers := informers.NewSharedInformerFactory(kubeClient, resyncInterval)
	gatewayInformerFactory := gatewayinformers.NewSharedInformerFactory(gatewayClient, resyncInterval)
	dynInformers := dynamicinformer.NewDynamicSharedInformerFactory(dynClient, resyncInterval)

	synced, err := registerHandlers(ix, kubeInformers, gatewayInformerFactory, dynInformers, logger)
	if err != nil {
		logger.Fatalf("Error registering informer handlers: %v", err)
	}

	kubeInformers.Start(stopCh)
	gatewayInformerFactory.Start(stopCh)
	dynInformers.Start(stopCh)

	logger.Info("Waiting for informer caches to sync")
	if ok := cache.WaitForCacheSync(stopCh, synced...); !ok {
		logger.Fatalf("Failed to wait for cache sync")
	}
	logger.Info("Informer caches synced")

	ready := func() bool {
		for _, s := range synced {
			if !s() {
				return false
			}
		}
		return true
	}

	// admin server: /metrics, /healthz, /readyz
	go server.ListenAndServe(port, 3*time.Second, logger, ready, stopCh)

	grpcServer := grpc.NewServer()
	discovery.RegisterPolicyDiscoveryServer(grpcServer, discovery.NewServer(ix, logger, true))

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatalf("Error listening on %s: %v", grpcAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
		grpcServer.GracefulStop()
	}()

	var g errgroup.Group
	g.Go(func() error {
		logger.Infof("Starting policy discovery server on %s", grpcAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		reconciler.Run(threadiness, stopCh)
		return nil
	})

	if enableLeaderElection {
		go startLeaderElection(ctx, reconciler, leaderElectionNamespace, kubeClient, logger)
	} else {
		reconciler.SetElected(true)
	}

	if err := g.Wait(); err != nil {
		logger.Fatalf("Error running servers: %v", err)
	}
}

func clusterInfo() (policy.ClusterInfo, error) {
	dp, err := policy.ParseDefaultPolicy(defaultPolicy)
	if err != nil {
		return policy.ClusterInfo{}, err
	}
	networks, err := policy.ParseCIDRs(strings.Split(clusterNetworks, ","))
	if err != nil {
		return policy.ClusterInfo{}, fmt.Errorf("invalid cluster-networks: %w", err)
	}
	var probes []policy.NetworkMatch
	if probeNetworks != "" {
		probes, err = policy.ParseCIDRs(strings.Split(probeNetworks, ","))
		if err != nil {
			return policy.ClusterInfo{}, fmt.Errorf("invalid probe-networks: %w", err)
		}
	}
	return policy.ClusterInfo{
		Networks:       networks,
		IdentityDomain: identityDomain,
		ClusterDomain:  clusterDomain,
		ProbeNetworks:  probes,
		DefaultPolicy:  dp,
		DetectTimeout:  detectTimeout,
	}, nil
}

// registerHandlers attaches every watched resource kind to its index sink
// and returns the cache sync checks readiness gates on
func registerHandlers(
	ix *index.ClusterIndex,
	kubeInformers informers.SharedInformerFactory,
	gatewayInformerFactory gatewayinformers.SharedInformerFactory,
	dynInformers dynamicinformer.DynamicSharedInformerFactory,
	logger *zap.SugaredLogger,
) ([]cache.InformerSynced, error) {
	var synced []cache.InformerSynced

	attach := func(informer cache.SharedIndexInformer, handler cache.ResourceEventHandler) error {
		if _, err := informer.AddEventHandler(handler); err != nil {
			return err
		}
		synced = append(synced, informer.HasSynced)
		return nil
	}

	// core resources
	if err := attach(kubeInformers.Core().V1().Pods().Informer(),
		watcher.NewStore(ix.Pods(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(kubeInformers.Core().V1().Services().Informer(),
		watcher.NewStore(ix.Services(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(kubeInformers.Core().V1().Namespaces().Informer(),
		watcher.NewStore(ix.Namespaces(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(kubeInformers.Core().V1().Nodes().Informer(),
		watcher.NewStore(ix.Nodes(), logger).Handler()); err != nil {
		return nil, err
	}

	// Gateway API routes
	if err := attach(gatewayInformerFactory.Gateway().V1().HTTPRoutes().Informer(),
		watcher.NewStore(ix.HTTPRoutes(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(gatewayInformerFactory.Gateway().V1().GRPCRoutes().Informer(),
		watcher.NewStore(ix.GRPCRoutes(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(gatewayInformerFactory.Gateway().V1alpha2().TLSRoutes().Informer(),
		watcher.NewStore(ix.TLSRoutes(), logger).Handler()); err != nil {
		return nil, err
	}
	if err := attach(gatewayInformerFactory.Gateway().V1alpha2().TCPRoutes().Informer(),
		watcher.NewStore(ix.TCPRoutes(), logger).Handler()); err != nil {
		return nil, err
	}

	// mesh policy CRDs, watched dynamically
	policyGV := policyv1alpha1.SchemeGroupVersion
	workloadGV := workloadv1alpha1.SchemeGroupVersion

	if err := attach(dynInformers.ForResource(policyGV.WithResource("servers")).Informer(),
		watcher.NewStore(ix.Servers(), logger).UnstructuredHandler(
			func() *policyv1alpha1.Server { return &policyv1alpha1.Server{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("serverauthorizations")).Informer(),
		watcher.NewStore(ix.ServerAuthorizations(), logger).UnstructuredHandler(
			func() *policyv1alpha1.ServerAuthorization { return &policyv1alpha1.ServerAuthorization{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("authorizationpolicies")).Informer(),
		watcher.NewStore(ix.AuthorizationPolicies(), logger).UnstructuredHandler(
			func() *policyv1alpha1.AuthorizationPolicy { return &policyv1alpha1.AuthorizationPolicy{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("meshtlsauthentications")).Informer(),
		watcher.NewStore(ix.MeshTLSAuthentications(), logger).UnstructuredHandler(
			func() *policyv1alpha1.MeshTLSAuthentication { return &policyv1alpha1.MeshTLSAuthentication{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("networkauthentications")).Informer(),
		watcher.NewStore(ix.NetworkAuthentications(), logger).UnstructuredHandler(
			func() *policyv1alpha1.NetworkAuthentication { return &policyv1alpha1.NetworkAuthentication{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("httplocalratelimitpolicies")).Informer(),
		watcher.NewStore(ix.RateLimits(), logger).UnstructuredHandler(
			func() *policyv1alpha1.HTTPLocalRateLimitPolicy { return &policyv1alpha1.HTTPLocalRateLimitPolicy{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(policyGV.WithResource("egressnetworks")).Informer(),
		watcher.NewStore(ix.EgressNetworks(), logger).UnstructuredHandler(
			func() *policyv1alpha1.EgressNetwork { return &policyv1alpha1.EgressNetwork{} })); err != nil {
		return nil, err
	}
	if err := attach(dynInformers.ForResource(workloadGV.WithResource("externalworkloads")).Informer(),
		watcher.NewStore(ix.ExternalWorkloads(), logger).UnstructuredHandler(
			func() *workloadv1alpha1.ExternalWorkload { return &workloadv1alpha1.ExternalWorkload{} })); err != nil {
		return nil, err
	}

	return synced, nil
}

func startLeaderElection(ctx context.Context, reconciler *status.Reconciler, ns string, kubeClient kubernetes.Interface, logger *zap.SugaredLogger) {
	leaseName := "policy-controller-status"
	id, err := os.Hostname()
	if err != nil {
		logger.Fatalf("Error reading hostname: %v", err)
	}
	id = id + "_" + uuid.NewString()

	lock, err := resourcelock.New(
		resourcelock.LeasesResourceLock,
		ns,
		leaseName,
		kubeClient.CoreV1(),
		kubeClient.CoordinationV1(),
		resourcelock.ResourceLockConfig{
			Identity: id,
		},
	)
	if err != nil {
		logger.Fatalf("Error creating resource lock: %v", err)
	}

	logger.Infof("Starting leader election id: %s lease: %s namespace: %s", id, leaseName, ns)
	leaderelection.RunOrDie(ctx, leaderelection.LeaderElectionConfig{
		Lock:            lock,
		ReleaseOnCancel: true,
		LeaseDuration:   60 * time.Second,
		RenewDeadline:   15 * time.Second,
		RetryPeriod:     5 * time.Second,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(ctx context.Context) {
				logger.Info("Acting as elected leader, status writes enabled")
				reconciler.SetElected(true)
				reconciler.Resync()
			},
			OnStoppedLeading: func() {
				logger.Infof("Leadership lost, status writes disabled")
				reconciler.SetElected(false)
			},
			OnNewLeader: func(identity string) {
				if identity != id {
					logger.Infof("Another instance has been elected as leader: %v", identity)
				}
			},
		},
	})
}
