// Package config defines the vault configuration fragments declared at
// tree nodes and the child-wins merge used to resolve them.
package config

// Fragment is the vault configuration declared at exactly one tree node.
// Any field may be blank; blanks are filled in from ancestor fragments
// during resolution. Fragments are read-only to this module.
type Fragment struct {
	// ApplianceURL is the base URL of the vault.
	ApplianceURL string `yaml:"appliance_url,omitempty" json:"appliance_url,omitempty"`

	// Account is the vault organization account.
	Account string `yaml:"account,omitempty" json:"account,omitempty"`

	// AuthnPath selects the authenticator webservice on the vault.
	// Defaults to "authn" when blank.
	AuthnPath string `yaml:"authn_path,omitempty" json:"authn_path,omitempty"`

	// CredentialID names the locally stored login/secret pair used by
	// the shared-secret authentication strategy.
	CredentialID string `yaml:"credential_id,omitempty" json:"credential_id,omitempty"`

	// CertCredentialID names the locally stored client certificate
	// credential, when the vault connection requires one.
	CertCredentialID string `yaml:"cert_credential_id,omitempty" json:"cert_credential_id,omitempty"`

	// OwnerLabel is a free-form label identifying who declared this
	// fragment. Informational only.
	OwnerLabel string `yaml:"owner,omitempty" json:"owner,omitempty"`
}

// IsBlank reports whether every field of the fragment is empty.
func (f Fragment) IsBlank() bool {
	return f == Fragment{}
}

// Merge combines a child fragment with its parent. Child fields win
// whenever they are non-blank; parent fields only fill gaps. Merging
// with a zero-value parent returns the child unchanged.
func Merge(child, parent Fragment) Fragment {
	out := child
	if out.ApplianceURL == "" {
		out.ApplianceURL = parent.ApplianceURL
	}
	if out.Account == "" {
		out.Account = parent.Account
	}
	if out.AuthnPath == "" {
		out.AuthnPath = parent.AuthnPath
	}
	if out.CredentialID == "" {
		out.CredentialID = parent.CredentialID
	}
	if out.CertCredentialID == "" {
		out.CertCredentialID = parent.CertCredentialID
	}
	if out.OwnerLabel == "" {
		out.OwnerLabel = parent.OwnerLabel
	}
	return out
}
