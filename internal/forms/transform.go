package forms

import (
	"github.com/formbridge/backend/internal/model"
	formsapi "google.golang.org/api/forms/v1"
)

// RadioType is the choice type every imported question is forced to,
// regardless of the type declared on the source question.
const RadioType = "RADIO"

// BuildCreateItemRequests maps descriptor items to CreateItem requests in two
// passes: first every page break, then every choice question. Location
// indices are assigned in emission order, so all page breaks land before all
// questions no matter how the input interleaves them.
//
// Option section references are looked up in pageBreakIDs as the requests are
// built; references absent from the map resolve to the empty string and are
// omitted from the wire request.
func BuildCreateItemRequests(items []model.FormItem, pageBreakIDs map[string]string) []*formsapi.Request {
	var reqs []*formsapi.Request
	index := int64(0)

	appendItem := func(item *formsapi.Item) {
		reqs = append(reqs, &formsapi.Request{
			CreateItem: &formsapi.CreateItemRequest{
				Item: item,
				Location: &formsapi.Location{
					Index: index,
					// Index 0 is the zero value and must still be sent.
					ForceSendFields: []string{"Index"},
				},
			},
		})
		index++
	}

	for _, it := range items {
		if it.PageBreakItem == nil {
			continue
		}
		appendItem(&formsapi.Item{
			Title:         it.Title,
			PageBreakItem: &formsapi.PageBreakItem{},
		})
	}

	for _, it := range items {
		cq := choiceQuestion(it)
		if cq == nil {
			continue
		}
		options := make([]*formsapi.Option, 0, len(cq.Options))
		for _, opt := range cq.Options {
			options = append(options, &formsapi.Option{
				Value:         opt.Value,
				GoToSectionId: pageBreakIDs[opt.GoToSectionID],
			})
		}
		appendItem(&formsapi.Item{
			Title: it.Title,
			QuestionItem: &formsapi.QuestionItem{
				Question: &formsapi.Question{
					ChoiceQuestion: &formsapi.ChoiceQuestion{
						Type:    RadioType,
						Options: options,
					},
				},
			},
		})
	}

	return reqs
}

// choiceQuestion returns the item's choice question, or nil when the item is
// not a choice question (those items are dropped from the import).
func choiceQuestion(it model.FormItem) *model.ChoiceQuestion {
	if it.QuestionItem == nil || it.QuestionItem.Question == nil {
		return nil
	}
	return it.QuestionItem.Question.ChoiceQuestion
}
