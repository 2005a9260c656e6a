package model

type AuthStatus string

const (
	AuthStatusAnonymous     AuthStatus = "anonymous"
	AuthStatusAuthenticated AuthStatus = "authenticated"
	AuthStatusRejected      AuthStatus = "rejected"
)

// RejectReason explains a rejected login or session recheck.
type RejectReason string

const (
	RejectBadCredentials RejectReason = "bad_credentials"
	RejectInactive       RejectReason = "inactive"
	RejectExpired        RejectReason = "expired"
	RejectMalformedDate  RejectReason = "malformed_date" // only with strict expiry
)

// Message is the user-facing text for a rejection.
func (r RejectReason) Message() string {
	switch r {
	case RejectBadCredentials:
		return "Bad credentials."
	case RejectInactive:
		return "Account inactive."
	case RejectExpired:
		return "Subscription expired."
	case RejectMalformedDate:
		return "Account expiry date is invalid."
	default:
		return "Enter your credentials."
	}
}

type AuthResult struct {
	Name     string       `json:"name,omitempty"`
	Status   AuthStatus   `json:"status"`
	Username string       `json:"username,omitempty"`
	Reason   RejectReason `json:"reason,omitempty"`
}

func (r AuthResult) OK() bool { return r.Status == AuthStatusAuthenticated }

// Session is the per-browser state bound on a successful login.
type Session struct {
	Authenticated bool
	Username      string
	Name          string
}

type Tool struct {
	Name string `yaml:"name" json:"name"`
	Desc string `yaml:"desc" json:"desc"`
	URL  string `yaml:"url" json:"url"`
}

type ToolCatalog map[string]Tool

type PackageTable map[string][]string

type PackagesFile struct {
	Packages PackageTable `yaml:"packages"`
}

type ToolsFile struct {
	Tools ToolCatalog `yaml:"tools"`
}

// ResolvedTool is a catalog entry the user is entitled to see.
type ResolvedTool struct {
	Key string `json:"key"`
	Tool
}

// Title is the display name, defaulting to the key.
func (t ResolvedTool) Title() string {
	if t.Name == "" {
		return t.Key
	}
	return t.Name
}
