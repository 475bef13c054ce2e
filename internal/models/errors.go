package models

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtraction          = errors.New("text extraction failed")
	ErrEmbeddingService    = errors.New("embedding service error")
	ErrChatService         = errors.New("chat service error")
	ErrEmptyCorpus         = errors.New("no document loaded")
)
