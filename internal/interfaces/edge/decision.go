package edge

import "strings"

type Kind string

const (
	KindDashboard   Kind = "dashboard"
	KindWebsite     Kind = "website"
	KindPassthrough Kind = "passthrough"
)

type Action string

const (
	ActionNext     Action = "next"
	ActionRewrite  Action = "rewrite"
	ActionRedirect Action = "redirect"
	ActionNotFound Action = "not_found"
)

// Decision is the routing outcome for one request.
type Decision struct {
	Kind          Kind
	Action        Action
	EffectiveHost string
	// Location is set for redirects.
	Location string
	// Path is the internal path for rewrites, or the original path otherwise.
	Path string
}

// Decide classifies a request. It has no side effects so every routing rule
// can be checked without a session provider.
func (c Config) Decide(host, origin, path string, authenticated bool) Decision {
	c = c.normalize()
	if path == "" {
		path = "/"
	}

	effective := c.effectiveHost(host, origin)
	decision := Decision{
		Kind:          KindPassthrough,
		Action:        ActionNext,
		EffectiveHost: effective,
		Path:          path,
	}

	dashboard := (c.Preview && hasPathPrefix(path, dashboardPrefix)) ||
		(!c.Preview && effective != "" && effective == c.DashboardHost)

	switch {
	case dashboard:
		decision.Kind = KindDashboard
		local := path
		if c.Preview {
			local = strings.TrimPrefix(path, dashboardPrefix)
			if local == "" {
				local = "/"
			}
		}

		if !hasPathPrefix(local, apiPrefix) {
			if !authenticated && local != signInPath {
				decision.Action = ActionRedirect
				decision.Location = c.signInLocation()
				return decision
			}
			if authenticated && local == signInPath {
				decision.Action = ActionRedirect
				decision.Location = c.rootLocation()
				return decision
			}
		}

		if !c.Preview {
			decision.Action = ActionRewrite
			decision.Path = prefixed(dashboardPrefix, path)
		}
	case effective != "" && effective == c.WebHost:
		decision.Kind = KindWebsite
		decision.Action = ActionRewrite
		decision.Path = prefixed(websitePrefix, path)
	case !c.Preview && (hasPathPrefix(path, dashboardPrefix) || hasPathPrefix(path, websitePrefix)):
		// Page mounts are only reachable through a rewrite from their own host.
		decision.Action = ActionNotFound
	}

	return decision
}

func (c Config) effectiveHost(host, origin string) string {
	effective := normalizeHost(host)
	if !c.OriginOverride {
		return effective
	}
	if o := originHost(origin); strings.HasPrefix(o, dashboardSubdomainPrefix) {
		return o
	}
	return effective
}

func (c Config) signInLocation() string {
	if c.Preview {
		return dashboardPrefix + signInPath
	}
	return signInPath
}

func (c Config) rootLocation() string {
	if c.Preview {
		return dashboardPrefix
	}
	return "/"
}

// prefixed mounts path under prefix, collapsing "/" to the bare prefix.
func prefixed(prefix, path string) string {
	if path == "/" || path == "" {
		return prefix
	}
	return prefix + path
}

// hasPathPrefix matches whole segments, so /dashboards is not under /dashboard.
func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
