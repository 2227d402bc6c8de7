package legacy

import (
	"github.com/roach88/ensemble/internal/contact"
)

// Result is the outcome of processing an address book.
type Result struct {
	// Records holds one raw field map per card, in book order.
	Records []contact.RawMap

	// Tags maps the tag IDs created for regular directories and mailing
	// lists to their display names.
	Tags map[string]string

	// Unknown lists, per record index, properties MapCard skipped.
	Unknown map[int][]string
}

// Process maps every card of the book.
//
// Cards of regular directories are tagged with the directory name, cards of
// the personal and collected books with PersonalTagID and CollectedTagID.
// Cards named by a mailing list's members also get the list's name.
func Process(b *Book) *Result {
	res := &Result{
		Tags:    map[string]string{},
		Unknown: map[int][]string{},
	}

	for _, dir := range b.Directories {
		dirTag := directoryTag(dir, res.Tags)

		listTags := map[string][]string{}
		for _, l := range dir.Lists {
			res.Tags[l.Name] = l.Name
			for _, member := range l.Members {
				listTags[member] = append(listTags[member], l.Name)
			}
		}

		for _, card := range dir.Cards {
			raw, unknown := MapCard(card)

			categories := []any{dirTag}
			for _, tag := range listTags[card["PrimaryEmail"]] {
				categories = append(categories, tag)
			}
			raw["category"] = categories

			if len(unknown) > 0 {
				res.Unknown[len(res.Records)] = unknown
			}
			res.Records = append(res.Records, raw)
		}
	}
	return res
}

func directoryTag(d Directory, tags map[string]string) string {
	switch d.Kind {
	case KindPersonal:
		return PersonalTagID
	case KindCollected:
		return CollectedTagID
	default:
		tags[d.Name] = d.Name
		return d.Name
	}
}
