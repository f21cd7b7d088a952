package model

import "time"

// StoredCredential is the single OAuth2 credential slot persisted to DynamoDB.
// The refresh token is encrypted at rest; the access token is short-lived and
// stored as returned by the authorization service.
type StoredCredential struct {
	SlotID                string    `json:"slot_id" dynamodbav:"slot_id"`
	AccessToken           string    `json:"access_token" dynamodbav:"access_token"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	TokenType             string    `json:"token_type" dynamodbav:"token_type"`
	Scope                 string    `json:"scope" dynamodbav:"scope"`
	Expiry                time.Time `json:"expiry" dynamodbav:"expiry"`
	UpdatedAt             time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// FormDescriptor is the validated import payload. Field names mirror the
// Google Forms wire shape so an exported form can be imported back unchanged.
type FormDescriptor struct {
	Info  *FormInfo  `json:"info"`
	Items []FormItem `json:"items"`
}

// FormInfo carries the form's title metadata.
type FormInfo struct {
	Title         string `json:"title"`
	DocumentTitle string `json:"documentTitle"`
}

// FormItem is a tagged union: at most one of PageBreakItem or QuestionItem is
// expected to be set. Items carrying neither are dropped during import.
type FormItem struct {
	Title         string         `json:"title"`
	PageBreakItem *PageBreakItem `json:"pageBreakItem,omitempty"`
	QuestionItem  *QuestionItem  `json:"questionItem,omitempty"`
}

// PageBreakItem marks the start of a new section.
type PageBreakItem struct{}

// QuestionItem wraps a question.
type QuestionItem struct {
	Question *Question `json:"question,omitempty"`
}

// Question holds the one question kind the importer understands. Items whose
// question has no ChoiceQuestion are dropped.
type Question struct {
	Required       bool            `json:"required,omitempty"`
	ChoiceQuestion *ChoiceQuestion `json:"choiceQuestion,omitempty"`
}

// ChoiceQuestion is a choice question of any source type; import forces it to
// single-choice.
type ChoiceQuestion struct {
	Type    string   `json:"type,omitempty"`
	Options []Option `json:"options"`
}

// Option is a single choice. GoToSectionID logically references a page-break
// item's title.
type Option struct {
	Value         string `json:"value"`
	GoToSectionID string `json:"goToSectionId,omitempty"`
}
