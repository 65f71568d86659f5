package checkout

import (
	"net/url"
	"strings"
)

const (
	LoginPath     = "/login"
	CheckoutPath  = "/checkout"
	ReturnToParam = "return_to"
)

type Authenticator interface {
	IsAuthenticated() bool
}

type Decision struct {
	Proceed  bool
	Redirect string
}

// Gate lets signed-in visitors into checkout and sends everyone else to
// the login entry point with checkout as the return path.
func Gate(a Authenticator) Decision {
	if a.IsAuthenticated() {
		return Decision{Proceed: true}
	}
	return Decision{Redirect: LoginURL(CheckoutPath)}
}

func LoginURL(returnTo string) string {
	returnTo = SafeReturnPath(returnTo)
	if returnTo == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{ReturnToParam: {returnTo}}.Encode()
}

// SafeReturnPath keeps p only when it is a local absolute path.
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return p
}
