package types

// Version is overwritten by -ldflags at release build time
var Version = "dev"
