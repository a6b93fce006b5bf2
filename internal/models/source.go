package models

// SourceFile is one uploaded file, owned by a single analysis request
type SourceFile struct {
	ID       string
	Name     string
	Language Language
	Content  []byte
}

// NewSourceFile builds a SourceFile, deriving the language from the filename
func NewSourceFile(id, name string, content []byte) SourceFile {
	return SourceFile{
		ID:       id,
		Name:     name,
		Language: DetectLanguage(name),
		Content:  content,
	}
}
