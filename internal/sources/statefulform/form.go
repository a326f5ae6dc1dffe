package statefulform

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// hiddenFields collects every hidden input on a page. ASP.NET view state and
// event validation ride along with all other hidden fields; carrying the lot
// keeps the adapter working on non-ASP.NET deployments too.
func hiddenFields(doc *goquery.Document) url.Values {
	payload := url.Values{}
	doc.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := s.Attr("value")
		payload.Set(name, value)
	})
	return payload
}

// buildPayload assembles the post body for one query: the page's hidden
// tokens, the mode's static fields, the submit button (or postback event
// target), and the query's logical fields mapped onto portal identifiers.
func buildPayload(doc *goquery.Document, mode domain.SearchMode, query domain.SearchQuery) url.Values {
	payload := hiddenFields(doc)

	for name, value := range mode.StaticFields {
		payload.Set(name, value)
	}

	if mode.SubmitField != "" {
		value := mode.SubmitValue
		if value == "" {
			value = "Search"
		}
		payload.Set(mode.SubmitField, value)
	} else {
		payload.Set("__EVENTTARGET", mode.EventTarget)
		payload.Set("__EVENTARGUMENT", "")
	}

	for logical, formField := range mode.Fields {
		if value := resolveFieldValue(logical, query); value != "" {
			payload.Set(formField, value)
		}
	}
	return payload
}

// resolveFieldValue maps a logical query field onto its value, splitting
// owner names and street addresses where the portal wants components.
func resolveFieldValue(logical string, query domain.SearchQuery) string {
	switch logical {
	case "owner":
		return query.Owner
	case "owner_first":
		return domain.SplitOwner(query.Owner).First
	case "owner_middle":
		return domain.SplitOwner(query.Owner).Middle
	case "owner_last":
		return domain.SplitOwner(query.Owner).Last
	case "address":
		return query.Address
	case "street_number":
		return domain.SplitAddress(query.Address).Number
	case "street_name":
		return domain.SplitAddress(query.Address).Street
	case "street_suffix":
		return domain.SplitAddress(query.Address).Suffix
	case "parcel_id":
		return query.ParcelID
	}
	return ""
}

// credentialFieldHints match common login input names.
var (
	usernameHintRe = regexp.MustCompile(`(?i)(user|login|email|account)`)
	passwordHintRe = regexp.MustCompile(`(?i)(pass|pwd)`)
)

// setCredentialFields fills the login form's username and password inputs,
// located by input type and common naming conventions.
func setCredentialFields(doc *goquery.Document, payload url.Values, creds *domain.Credentials) {
	doc.Find(`input[type="password"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if name, ok := s.Attr("name"); ok && name != "" {
			payload.Set(name, creds.Password)
			return false
		}
		return true
	})
	doc.Find(`input[type="text"], input[type="email"], input:not([type])`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, ok := s.Attr("name")
		if !ok || name == "" || !usernameHintRe.MatchString(name) || passwordHintRe.MatchString(name) {
			return true
		}
		payload.Set(name, creds.Username)
		return false
	})
}

// doPostBackRe extracts the target and argument from an ASP.NET
// javascript:__doPostBack(...) pagination link.
var doPostBackRe = regexp.MustCompile(`__doPostBack\('([^']*)'\s*,\s*'([^']*)'\)`)

// parsePostBack returns the event target and argument of a postback href,
// or false when the href is a plain link.
func parsePostBack(href string) (target, argument string, ok bool) {
	m := doPostBackRe.FindStringSubmatch(href)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
