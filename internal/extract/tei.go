// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses GROBID TEI output and scans paper text for
// suppression indicators.
// Implements: prd007-extraction R2.1-R2.4, R3.1-R3.3;
//
//	docs/ARCHITECTURE.md § Extraction.
package extract

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Header is the bibliographic metadata parsed from a TEI header document.
type Header struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Affiliations []string `json:"affiliations"`
	Abstract     string   `json:"abstract,omitempty"`
	DOI          string   `json:"doi,omitempty"`
}

// teiDocument mirrors the subset of the TEI schema GROBID emits from
// processHeaderDocument.
type teiDocument struct {
	XMLName xml.Name `xml:"TEI"`
	Header  struct {
		FileDesc struct {
			TitleStmt struct {
				Title string `xml:"title"`
			} `xml:"titleStmt"`
			SourceDesc struct {
				BiblStruct struct {
					Analytic struct {
						Authors []teiAuthor `xml:"author"`
					} `xml:"analytic"`
					IDNos []teiIDNo `xml:"idno"`
				} `xml:"biblStruct"`
			} `xml:"sourceDesc"`
		} `xml:"fileDesc"`
		Profile struct {
			Abstract struct {
				Paragraphs []string `xml:"div>p"`
			} `xml:"abstract"`
		} `xml:"profileDesc"`
	} `xml:"teiHeader"`
}

type teiAuthor struct {
	PersName struct {
		Forenames []string `xml:"forename"`
		Surname   string   `xml:"surname"`
	} `xml:"persName"`
	Affiliations []struct {
		OrgNames []struct {
			Type string `xml:"type,attr"`
			Name string `xml:",chardata"`
		} `xml:"orgName"`
	} `xml:"affiliation"`
}

type teiIDNo struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// ParseHeader parses a TEI header document into a Header. A document with
// no title is rejected; everything else is best-effort.
func ParseHeader(tei []byte) (Header, error) {
	var doc teiDocument
	if err := xml.Unmarshal(tei, &doc); err != nil {
		return Header{}, fmt.Errorf("parsing TEI: %w", err)
	}

	h := Header{Title: strings.TrimSpace(doc.Header.FileDesc.TitleStmt.Title)}
	if h.Title == "" {
		return Header{}, fmt.Errorf("TEI document has no title")
	}

	seen := map[string]bool{}
	for _, author := range doc.Header.FileDesc.SourceDesc.BiblStruct.Analytic.Authors {
		name := authorName(author)
		if name != "" {
			h.Authors = append(h.Authors, name)
		}
		for _, aff := range author.Affiliations {
			for _, org := range aff.OrgNames {
				// Institution-level names only; departments are noise for
				// affiliation counting.
				if org.Type != "institution" {
					continue
				}
				org.Name = strings.TrimSpace(org.Name)
				if org.Name == "" || seen[org.Name] {
					continue
				}
				seen[org.Name] = true
				h.Affiliations = append(h.Affiliations, org.Name)
			}
		}
	}

	h.Abstract = strings.TrimSpace(strings.Join(doc.Header.Profile.Abstract.Paragraphs, "\n\n"))
	for _, idno := range doc.Header.FileDesc.SourceDesc.BiblStruct.IDNos {
		if strings.EqualFold(idno.Type, "DOI") {
			h.DOI = strings.TrimSpace(idno.Value)
			break
		}
	}
	return h, nil
}

func authorName(a teiAuthor) string {
	parts := make([]string, 0, len(a.PersName.Forenames)+1)
	for _, fn := range a.PersName.Forenames {
		if fn = strings.TrimSpace(fn); fn != "" {
			parts = append(parts, fn)
		}
	}
	if sn := strings.TrimSpace(a.PersName.Surname); sn != "" {
		parts = append(parts, sn)
	}
	return strings.Join(parts, " ")
}

// teiText mirrors the body of a processFulltextDocument response.
type teiText struct {
	XMLName xml.Name `xml:"TEI"`
	Body    struct {
		Divs []struct {
			Head       string   `xml:"head"`
			Paragraphs []string `xml:"p"`
		} `xml:"div"`
	} `xml:"text>body"`
}

// ParseFulltext flattens a TEI full-text document into plain text, one
// section per block, for indicator scanning.
func ParseFulltext(tei []byte) (string, error) {
	var doc teiText
	if err := xml.Unmarshal(tei, &doc); err != nil {
		return "", fmt.Errorf("parsing TEI: %w", err)
	}

	var b strings.Builder
	for _, div := range doc.Body.Divs {
		if head := strings.TrimSpace(div.Head); head != "" {
			b.WriteString(head)
			b.WriteString("\n")
		}
		for _, p := range div.Paragraphs {
			if p = strings.TrimSpace(p); p != "" {
				b.WriteString(p)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
