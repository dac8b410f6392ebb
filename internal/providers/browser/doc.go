// Package browser exposes the fetch engine as a service provider.
//
// The provider accepts a URL string and returns the decoded body plus
// page metadata through the standard Result contract. It also keeps a
// per-session history stack so UI surfaces can offer back navigation
// without owning any protocol logic themselves.
package browser
