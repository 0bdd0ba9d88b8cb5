// Package creds models the credential descriptors listed from the
// vault, the per-context TTL cache holding them, and the visibility
// gate that filters them per caller.
package creds

import "github.com/systmms/secretree/internal/vault"

// Kind tags what shape of credential a descriptor points at.
type Kind string

const (
	KindPlain        Kind = "plain"
	KindUsernamePair Kind = "usernamePair"
	KindFile         Kind = "file"
	KindSSHKey       Kind = "sshKey"
	KindCertificate  Kind = "certificate"
)

// Annotation names the vault attaches to variables to describe their
// credential shape.
const (
	kindAnnotation     = "secretree/kind"
	usernameAnnotation = "secretree/username"
)

// Descriptor is a typed handle to one retrievable secret. Immutable
// once created; discarded when its owning cached set expires.
type Descriptor struct {
	// Identifier addresses the secret within the vault account.
	Identifier string `json:"identifier"`

	// Kind tags the credential shape.
	Kind Kind `json:"kind"`

	// ContextPath is the tree path of the context the listing was
	// performed for.
	ContextPath string `json:"context_path"`

	// Username is the paired login for usernamePair descriptors.
	Username string `json:"username,omitempty"`
}

// DescriptorsFromResource expands one listed vault resource into its
// descriptors. Every variable yields a plain descriptor; an annotated
// shape yields one extra descriptor of that shape.
func DescriptorsFromResource(res vault.Resource, contextPath string) []Descriptor {
	id := res.Identifier()
	out := []Descriptor{{
		Identifier:  id,
		Kind:        KindPlain,
		ContextPath: contextPath,
	}}

	switch Kind(res.Annotation(kindAnnotation)) {
	case KindUsernamePair:
		out = append(out, Descriptor{
			Identifier:  id,
			Kind:        KindUsernamePair,
			ContextPath: contextPath,
			Username:    res.Annotation(usernameAnnotation),
		})
	case KindFile:
		out = append(out, Descriptor{Identifier: id, Kind: KindFile, ContextPath: contextPath})
	case KindSSHKey:
		out = append(out, Descriptor{Identifier: id, Kind: KindSSHKey, ContextPath: contextPath})
	case KindCertificate:
		out = append(out, Descriptor{Identifier: id, Kind: KindCertificate, ContextPath: contextPath})
	}
	return out
}
