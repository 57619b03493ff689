package pubmed

import "encoding/xml"

// ESearchResult is the esearch.fcgi response listing matching PMIDs.
type ESearchResult struct {
	XMLName  xml.Name `xml:"eSearchResult"`
	Count    int      `xml:"Count"`
	RetMax   int      `xml:"RetMax"`
	RetStart int      `xml:"RetStart"`
	IDList   IDList   `xml:"IdList"`
}

// IDList holds the ordered PMIDs returned by esearch.
type IDList struct {
	IDs []string `xml:"Id"`
}

// PubmedArticleSet is the efetch.fcgi response envelope.
type PubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle is one fetched article record.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
	PubmedData      PubmedData      `xml:"PubmedData"`
}

// MedlineCitation carries the bibliographic core of the record.
type MedlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article Article `xml:"Article"`
}

// Article holds title, abstract, authors and journal metadata.
type Article struct {
	Title        string      `xml:"ArticleTitle"`
	Abstract     Abstract    `xml:"Abstract"`
	AuthorList   AuthorList  `xml:"AuthorList"`
	Journal      Journal     `xml:"Journal"`
	ArticleDate  ArticleDate `xml:"ArticleDate"`
	LanguageList []string    `xml:"Language"`
}

// Abstract may carry multiple labeled text sections.
type Abstract struct {
	Texts []string `xml:"AbstractText"`
}

// AuthorList holds the article contributors.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author is one contributor; person names split across fields, collective
// (group) names arrive in their own element.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

// Journal names the publication venue and its issue date.
type Journal struct {
	Title        string       `xml:"Title"`
	JournalIssue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue carries the publication date.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate is either structured (Year) or free text (MedlineDate).
type PubDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

// ArticleDate is the electronic publication date.
type ArticleDate struct {
	Year string `xml:"Year"`
}

// PubmedData carries cross-registry identifiers.
type PubmedData struct {
	ArticleIDs ArticleIDList `xml:"ArticleIdList"`
}

// ArticleIDList holds typed article identifiers.
type ArticleIDList struct {
	IDs []ArticleID `xml:"ArticleId"`
}

// ArticleID is one identifier with its registry type (doi, pmc, pubmed).
type ArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
