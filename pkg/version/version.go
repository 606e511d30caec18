package version

var VERSION = "0.4.0"
var REVISION = "unknown"
