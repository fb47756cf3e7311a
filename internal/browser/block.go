package browser

import (
	"net/url"
	"strings"
)

var blockedResourceTypes = map[string]struct{}{
	"image":      {},
	"media":      {},
	"font":       {},
	"stylesheet": {},
}

// blockedDomains are analytics and tag-manager hosts that only slow page loads down.
var blockedDomains = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"facebook.net",
	"doubleclick.net",
	"hotjar.com",
	"segment.io",
	"segment.com",
	"newrelic.com",
	"nr-data.net",
	"sentry.io",
	"datadoghq.com",
	"optimizely.com",
	"amplitude.com",
	"mixpanel.com",
	"braze.com",
	"appsflyer.com",
	"branch.io",
	"mparticle.com",
}

// ShouldBlock reports whether a page sub-request is dropped before it leaves
// the browser: heavy static assets and known tracking hosts (including their
// subdomains).
func ShouldBlock(resourceType, rawURL string) bool {
	if _, ok := blockedResourceTypes[strings.ToLower(resourceType)]; ok {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
