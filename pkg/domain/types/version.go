package types

// Version is overwritten at build time by -ldflags "-X ...types.Version=..."
var Version = "dev"

// ServiceName is used in logs and health responses
const ServiceName = "cupnotifier"
