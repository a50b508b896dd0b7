package services

import (
	"embed"
	"encoding/json"

	"directed/internal/llm"
	"directed/internal/models"
	contextutils "directed/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var contentSchemasFS embed.FS

// contentSchemas holds the compiled shape of each content kind
type contentSchemas struct {
	byType map[models.ContentType]*gojsonschema.Schema
	// quizLLM is the quiz schema in the form providers accept for structured output
	quizLLM *llm.Schema
}

var schemaFiles = map[models.ContentType]string{
	models.ContentTypeFlashcards:        "schemas/flashcards.json",
	models.ContentTypeQuiz:              "schemas/quiz.json",
	models.ContentTypePracticeQuestions: "schemas/practice_questions.json",
}

func loadContentSchemas() (*contentSchemas, error) {
	cs := &contentSchemas{byType: make(map[models.ContentType]*gojsonschema.Schema, len(schemaFiles))}

	for contentType, path := range schemaFiles {
		raw, err := contentSchemasFS.ReadFile(path)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to read %s", path)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to compile %s", path)
		}
		cs.byType[contentType] = schema

		if contentType == models.ContentTypeQuiz {
			var def map[string]any
			if err := json.Unmarshal(raw, &def); err != nil {
				return nil, contextutils.WrapErrorf(err, "failed to parse %s", path)
			}
			delete(def, "$schema")
			cs.quizLLM = &llm.Schema{Name: "quiz", Description: "A multiple choice quiz", Definition: def}
		}
	}

	return cs, nil
}

// check validates v against the schema for contentType and returns one message per violation
func (cs *contentSchemas) check(contentType models.ContentType, v interface{}) []string {
	schema, ok := cs.byType[contentType]
	if !ok {
		return []string{"no schema for content type " + string(contentType)}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return msgs
}
