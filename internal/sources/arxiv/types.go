package arxiv

import "github.com/openshelf/openaccess-service/internal/sources"

// categoryFragments maps the controlled discipline vocabulary to arXiv
// category query clauses. arXiv only covers a subset of the vocabulary;
// unmapped disciplines are ignored.
var categoryFragments = sources.ExpansionTable{
	sources.DisciplineBiology:         "cat:q-bio.*",
	sources.DisciplinePhysics:         "cat:physics.*",
	sources.DisciplineMathematics:     "cat:math.*",
	sources.DisciplineComputerScience: "cat:cs.*",
	sources.DisciplineEconomics:       "cat:econ.*",
}
