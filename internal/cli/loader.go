package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/formwell/formwell/internal/compiler"
	"github.com/formwell/formwell/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedSchema is one compiled schema document plus its provenance.
type LoadedSchema struct {
	BlockType string
	Hash      string // content hash of the parsed document
	Source    string // file path (CUE documents share the instance path)
	Doc       *schema.Document
	Schema    *schema.Schema
}

// LoadResult contains the results of loading schemas from a directory.
type LoadResult struct {
	Schemas   []LoadedSchema
	FileCount int // schema files found (.cue, .yaml, .yml)
}

// ByBlockType returns the loaded schema for a block type, or nil.
func (r *LoadResult) ByBlockType(blockType string) *LoadedSchema {
	for i := range r.Schemas {
		if r.Schemas[i].BlockType == blockType {
			return &r.Schemas[i]
		}
	}
	return nil
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeScanError      = "E002" // Directory scan error
	ErrCodeNoFiles        = "E003" // No schema files found
	ErrCodeLoadFailed     = "E004" // CUE load failed
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeBuildFailed    = "E006" // CUE build failed
	ErrCodeParseFailed    = "E007" // YAML parse failed
	ErrCodeDuplicateBlock = "E008" // Same block type declared twice
)

// LoadSchemas loads and compiles schema documents from a directory.
//
// CUE files are loaded as one instance; each entry under the top-level
// "schema" struct is a document keyed by block type. YAML files hold one
// document each. Both renderings compile to the same Document, and the
// content hash is taken over the parsed document so the rendering does
// not affect identity.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSchemas(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, yamlFiles, err := FindSchemaFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no schema files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(cueFiles) + len(yamlFiles)}
	seen := map[string]string{} // blockType -> source

	addDoc := func(doc *schema.Document, source string) bool {
		if prev, dup := seen[doc.BlockType]; dup {
			errs = append(errs, &LoadError{
				Code:    ErrCodeDuplicateBlock,
				Message: fmt.Sprintf("block type %q declared in both %s and %s", doc.BlockType, prev, source),
			})
			return mode != LoadModeFailFast
		}

		compiled, compileErr := compiler.Compile(doc)
		if compileErr != nil {
			errs = append(errs, compileErr)
			return mode != LoadModeFailFast
		}

		hash, hashErr := documentHash(doc)
		if hashErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("hashing %s: %v", source, hashErr)})
			return mode != LoadModeFailFast
		}

		seen[doc.BlockType] = source
		result.Schemas = append(result.Schemas, LoadedSchema{
			BlockType: doc.BlockType,
			Hash:      hash,
			Source:    source,
			Doc:       doc,
			Schema:    compiled,
		})
		return true
	}

	if len(cueFiles) > 0 {
		docs, cueErrs := loadCUEDocuments(dir)
		errs = append(errs, cueErrs...)
		if len(cueErrs) > 0 && mode == LoadModeFailFast {
			return result, errs
		}
		for _, doc := range docs {
			if !addDoc(doc, dir) {
				return result, errs
			}
		}
	}

	for _, path := range yamlFiles {
		doc, yamlErr := loadYAMLDocument(path)
		if yamlErr != nil {
			errs = append(errs, yamlErr)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if !addDoc(doc, path) {
			return result, errs
		}
	}

	if len(result.Schemas) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no schema documents found"})
	}

	return result, errs
}

// loadCUEDocuments loads all CUE files in dir as a single instance and
// extracts every document under the top-level "schema" struct.
func loadCUEDocuments(dir string) ([]*schema.Document, []error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	schemasVal := value.LookupPath(cue.ParsePath("schema"))
	if !schemasVal.Exists() {
		return nil, nil
	}

	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("iterating schemas: %v", err)}}
	}

	var docs []*schema.Document
	var errs []error
	for iter.Next() {
		doc, compileErr := compiler.CompileDocument(iter.Value())
		if compileErr != nil {
			errs = append(errs, compileErr)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

// loadYAMLDocument parses one YAML file into a schema document.
func loadYAMLDocument(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var doc schema.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	if doc.BlockType == "" {
		// Fall back to the file name so validation errors name the document.
		doc.BlockType = trimExt(filepath.Base(path))
	}
	return &doc, nil
}

// FindSchemaFiles walks the directory and returns CUE and YAML file paths.
func FindSchemaFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
		return nil
	})
	sort.Strings(yamlFiles)
	return cueFiles, yamlFiles, err
}

// documentHash computes the content hash over the parsed document's JSON
// encoding, so CUE and YAML renderings of the same document share identity.
func documentHash(doc *schema.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return schema.DocumentHash(data), nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
