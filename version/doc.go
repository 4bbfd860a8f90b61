// Package version reports the build identity of pageiter binaries.
//
//	go build -ldflags "-X github.com/kbukum/pageiter/version.Version=1.0.0" ./cmd/pageiter
package version
