package insights

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for note documents. Content
// and the book display fields get English stemming; IDs stay exact.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = en.AnalyzerName
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("content", contentField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	docMapping.AddFieldMappingsAt("book_title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	docMapping.AddFieldMappingsAt("book_author", authorField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	bookIDField := bleve.NewTextFieldMapping()
	bookIDField.Analyzer = keyword.Name
	bookIDField.Store = true
	docMapping.AddFieldMappingsAt("book_id", bookIDField)

	createdField := bleve.NewNumericFieldMapping()
	createdField.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
