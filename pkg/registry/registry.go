package registry

import (
	"github.com/infinivision/gridcore/pkg/meta"
)

// Registry publishes the member to the registry center, so the clients can
// discover the grid members from the registry center
type Registry interface {
	// Register register the member and keep it alive until deregistered
	Register(member meta.MemberInfo) error
	// Deregister remove the member
	Deregister(member meta.MemberInfo) error
}
