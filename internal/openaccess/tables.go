package openaccess

import "regexp"

// DOI registrant prefixes of publishers whose works are open access by
// policy. Matched against the start of the DOI.
var openDOIPrefixes = []string{
	"10.1371", // PLOS
	"10.1186", // BioMed Central
	"10.3389", // Frontiers
	"10.7554", // eLife
	"10.12688", // F1000Research
	"10.1101", // bioRxiv / medRxiv preprints
	"10.7717", // PeerJ
	"10.3390", // MDPI
	"10.21105", // Journal of Open Source Software
	"10.46936", // open government research
}

// DOI registrant prefixes of subscription publishers. A match rejects
// immediately, before the URL is even inspected: a paywalled registrant
// with an incidental repository URL is still overwhelmingly paywalled.
var paywallDOIPrefixes = []string{
	"10.1007", // Springer
	"10.1016", // Elsevier
	"10.1002", // Wiley
	"10.1111", // Wiley (society journals)
	"10.1109", // IEEE
	"10.1080", // Taylor & Francis
	"10.1177", // SAGE
	"10.1093", // Oxford University Press
	"10.1017", // Cambridge University Press
	"10.1021", // American Chemical Society
	"10.1038", // Nature Portfolio
	"10.4324", // Routledge
	"10.1145", // ACM
}

// Hosts that serve paywalled content. Suffix-matched against the URL host.
var paywallDomains = []string{
	"sciencedirect.com",
	"link.springer.com",
	"onlinelibrary.wiley.com",
	"ieeexplore.ieee.org",
	"tandfonline.com",
	"journals.sagepub.com",
	"academic.oup.com",
	"cambridge.org",
	"dl.acm.org",
	"pubs.acs.org",
	"jstor.org",
	"nature.com",
	"elgaronline.com",
	"degruyter.com",
}

// Hosts that only serve open content. Suffix-matched against the URL host.
var openAccessDomains = []string{
	"arxiv.org",
	"biorxiv.org",
	"medrxiv.org",
	"ncbi.nlm.nih.gov",
	"europepmc.org",
	"doaj.org",
	"core.ac.uk",
	"openlibrary.org",
	"archive.org",
	"gutenberg.org",
	"oapen.org",
	"doabooks.org",
	"openstax.org",
	"open.umn.edu",
	"libretexts.org",
	"plos.org",
	"scielo.org",
	"openalex.org",
	"zenodo.org",
	"hal.science",
}

// Markers suggesting an institutional or educational repository. This
// heuristic is deliberately broad and is a known weakness both ways: it can
// accept non-open content hosted on an educational domain and it cannot
// reject open content hosted elsewhere. Kept as-is rather than silently
// tightened.
var educationalURLMarkers = []string{
	".edu",
	".ac.",
	".org",
	"repository",
	"dspace",
	"eprints",
	"research",
}

// Creative Commons license markers, matched against license metadata and
// abstract text.
var ccLicensePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)creative\s*commons`),
	regexp.MustCompile(`(?i)\bCC[- ]?BY(?:[- ]?(?:SA|NC|ND|NC[- ]SA|NC[- ]ND))?\b`),
	regexp.MustCompile(`(?i)\bCC0\b`),
	regexp.MustCompile(`(?i)creativecommons\.org/licenses`),
	regexp.MustCompile(`(?i)public\s+domain`),
}

// Name fragments of journals and publishers that are fully open access.
// Case-insensitive substring match against the journal field.
var openAccessJournalFragments = []string{
	"plos",
	"bmc ",
	"biomed central",
	"frontiers in",
	"elife",
	"peerj",
	"f1000",
	"open access",
	"journal of open",
	"mdpi",
}
