package legacy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/ensemble/internal/contact"
)

var stringProps = map[string]string{
	"DisplayName": "name",
	"FirstName":   "givenName",
	"LastName":    "familyName",
	"NickName":    "nickname",
	"JobTitle":    "jobTitle",
	"Department":  "department",
	"Company":     "org",
	"Notes":       "note",
}

var emailProps = []string{"PrimaryEmail", "SecondEmail"}

var imProps = []struct{ prop, kind string }{
	{"_GoogleTalk", "GTalk"},
	{"_AimScreenName", "AIM"},
	{"_Yahoo", "Yahoo"},
	{"_Skype", "Skype"},
	{"_QQ", "QQ"},
	{"_MSN", "MSN"},
	{"_ICQ", "ICQ"},
	{"_JabberId", "Jabber"},
}

var phoneProps = []struct{ prop, kind string }{
	{"HomePhone", "Home"},
	{"WorkPhone", "Work"},
	{"FaxNumber", "Fax"},
	{"PagerNumber", "Pager"},
	{"CellularNumber", "Cellular"},
}

var addressPrefixes = []string{"Home", "Work"}

var addressParts = map[string]string{
	"City":    "locality",
	"State":   "region",
	"ZipCode": "postalCode",
	"Country": "countryName",
}

var websiteProps = []string{"WebPage1", "WebPage2"}

// MapCard converts a card into a raw field map. Properties it does not
// know are returned, sorted, rather than failing the card.
func MapCard(c Card) (contact.RawMap, []string) {
	raw := contact.RawMap{}
	seen := map[string]bool{}
	get := func(prop string) string {
		if _, ok := c[prop]; ok {
			seen[prop] = true
		}
		return strings.TrimSpace(c[prop])
	}

	for prop, field := range stringProps {
		if v := get(prop); v != "" {
			raw[field] = v
		}
	}

	var emails []any
	for _, prop := range emailProps {
		if v := get(prop); v != "" {
			emails = append(emails, map[string]any{"value": v})
		}
	}
	setList(raw, "email", emails)

	var ims []any
	for _, im := range imProps {
		if v := get(im.prop); v != "" {
			ims = append(ims, map[string]any{"type": im.kind, "value": v})
		}
	}
	setList(raw, "impp", ims)

	var phones []any
	for _, p := range phoneProps {
		// The *Type companions only restate the label.
		get(p.prop + "Type")
		if v := get(p.prop); v != "" {
			phones = append(phones, map[string]any{"type": p.kind, "value": v})
		}
	}
	setList(raw, "tel", phones)

	var addresses []any
	for _, prefix := range addressPrefixes {
		if adr := mapAddress(prefix, get); adr != nil {
			addresses = append(addresses, adr)
		}
	}
	setList(raw, "adr", addresses)

	var urls []any
	for _, prop := range websiteProps {
		if v := get(prop); v != "" {
			urls = append(urls, map[string]any{"value": v})
		}
	}
	setList(raw, "url", urls)

	if d := mapDate(get("BirthYear"), get("BirthMonth"), get("BirthDay")); d != "" {
		raw["bday"] = d
	}
	if d := mapDate(get("AnniversaryYear"), get("AnniversaryMonth"), get("AnniversaryDay")); d != "" {
		raw["anniversary"] = d
	}

	var unknown []string
	for prop := range c {
		if !seen[prop] {
			unknown = append(unknown, prop)
		}
	}
	sort.Strings(unknown)
	return raw, unknown
}

func setList(raw contact.RawMap, field string, items []any) {
	if len(items) > 0 {
		raw[field] = items
	}
}

// mapAddress collects the <prefix>Address* properties into one adr entry.
// Address and Address2 share the streetAddress, one per line.
func mapAddress(prefix string, get func(string) string) map[string]any {
	adr := map[string]any{}

	var street []string
	for _, part := range []string{"Address", "Address2"} {
		if v := get(prefix + part); v != "" {
			street = append(street, v)
		}
	}
	if len(street) > 0 {
		adr["streetAddress"] = strings.Join(street, "\n")
	}
	for suffix, attr := range addressParts {
		if v := get(prefix + suffix); v != "" {
			adr[attr] = v
		}
	}

	if len(adr) == 0 {
		return nil
	}
	adr["type"] = prefix
	return adr
}

// mapDate renders year/month/day properties as an ISO date. A missing month
// or day defaults to 1; without a valid year there is no date.
func mapDate(year, month, day string) string {
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return ""
	}
	m := atoiOr(month, 1)
	d := atoiOr(day, 1)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
