package common

// Version is set at build time with
// -ldflags "-X github.com/ruteri/holo-auth-client/common.Version=..."
var Version = "dev"

// UserAgent is sent with every request to the Holo authorities.
func UserAgent() string {
	return "holo-auth/" + Version
}
