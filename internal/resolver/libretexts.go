package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// libretextsPageIDPattern pulls the numeric page identifier out of the
// inline page configuration LibreTexts embeds in every book page.
var libretextsPageIDPattern = regexp.MustCompile(`(?i)pageid["']?\s*[:=]\s*["']?(\d+)`)

// libretextsBatchFormat builds the batch-export URL from the library
// section prefix and page ID. Declared as a var so tests can substitute an
// httptest server.
var libretextsBatchFormat = "https://batch.libretexts.org/print/Letter/Finished/%s-%s/Full.pdf"

// resolveLibreTexts handles LibreTexts book pages. The federated network
// shards into per-subject libraries (chem.libretexts.org, math.libretexts.org,
// ...) whose section prefix is part of the batch-export URL. The batch
// export covers the whole book; when it does not exist the per-page
// on-demand export is used instead, which may contain only the table of
// contents rather than the full work. That degradation is accepted.
func resolveLibreTexts(ctx context.Context, r *Resolver, pageURL string, hops int) (string, bool) {
	body := r.fetchBody(ctx, pageURL)
	if body == "" {
		return "", false
	}

	m := libretextsPageIDPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	pageID := m[1]

	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	section := strings.SplitN(u.Hostname(), ".", 2)[0]
	if section == "" || section == "libretexts" || section == "www" {
		return "", false
	}

	batchURL := fmt.Sprintf(libretextsBatchFormat, section, pageID)
	if r.exists(ctx, batchURL) {
		return batchURL, true
	}

	return fmt.Sprintf("https://%s/@api/deki/pages/%s/pdf", u.Host, pageID), true
}
