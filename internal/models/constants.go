package models

const (
	ContextSeparator = "\n"
	ThinkTag         = `(?s)<think>.*?</think>`
	WarnNoDocument   = "Load a document first."
)

var (
	AnswerPromptTemplate = `Use the following document context to answer accurately.

%s

Question: %s`
)
