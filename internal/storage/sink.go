package storage

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/fileutil"
	"github.com/rohmanhakim/wiki-crawler/pkg/hashutil"
)

/*
Responsibilities
- Persist category and article records as JSON
- Derive deterministic filenames from sanitized titles
- Keep filenames collision-free across different URLs

Output Characteristics
- <outputDir>/categories/Category_<Title>.json
- <outputDir>/articles/<Title>.json
- Idempotent writes: saving the same URL again overwrites its own file
- A different URL with the same sanitized title gets a short BLAKE3
  URL-hash suffix
- Writes are atomic (temp file + rename)
*/

const (
	categoriesDir  = "categories"
	articlesDir    = "articles"
	categoryPrefix = "Category_"
	urlHashLength  = 8
)

type Sink interface {
	SaveCategory(record CategoryRecord) (WriteResult, failure.ClassifiedError)
	SaveArticle(record ArticleRecord) (WriteResult, failure.ClassifiedError)
}

// Indexer receives an entry for every record written. Index failures are
// reported but never undo a write.
type Indexer interface {
	IndexRecord(entry IndexEntry) error
}

// Compile-time interface check
var _ Sink = (*LocalSink)(nil)

type LocalSink struct {
	metadataSink      metadata.MetadataSink
	outputDir         string
	maxFilenameLength int
	indexer           Indexer

	mu     sync.Mutex
	owners map[string]string // file path -> URL stored in it
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
	outputDir string,
	maxFilenameLength int,
) *LocalSink {
	return &LocalSink{
		metadataSink:      metadataSink,
		outputDir:         outputDir,
		maxFilenameLength: maxFilenameLength,
		owners:            make(map[string]string),
	}
}

// WithIndexer attaches an Indexer, such as the SQLite catalog.
func (s *LocalSink) WithIndexer(indexer Indexer) *LocalSink {
	s.indexer = indexer
	return s
}

func (s *LocalSink) SaveCategory(record CategoryRecord) (WriteResult, failure.ClassifiedError) {
	record.Type = TypeCategory
	if record.Subcategories == nil {
		record.Subcategories = []string{}
	}
	if record.Articles == nil {
		record.Articles = []string{}
	}

	result, err := s.save(categoriesDir, categoryPrefix, record.Title, record.URL, record)
	if err != nil {
		s.recordError("LocalSink.SaveCategory", record.URL, err)
		return WriteResult{}, err
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactCategory,
		result.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, record.URL),
			metadata.NewAttr(metadata.AttrWritePath, result.Path()),
		},
	)
	s.index(IndexEntry{
		Kind:        TypeCategory,
		URL:         record.URL,
		Title:       record.Title,
		Path:        result.Path(),
		ContentHash: result.ContentHash(),
		SavedAt:     record.ProcessedAt,
	})
	return result, nil
}

func (s *LocalSink) SaveArticle(record ArticleRecord) (WriteResult, failure.ClassifiedError) {
	record.Type = TypeArticle

	result, err := s.save(articlesDir, "", record.Title, record.URL, record)
	if err != nil {
		s.recordError("LocalSink.SaveArticle", record.URL, err)
		return WriteResult{}, err
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactArticle,
		result.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, record.URL),
			metadata.NewAttr(metadata.AttrWritePath, result.Path()),
			metadata.NewAttr(metadata.AttrLanguage, record.Language),
		},
	)
	s.index(IndexEntry{
		Kind:        TypeArticle,
		URL:         record.URL,
		Title:       record.Title,
		Path:        result.Path(),
		Language:    record.Language,
		ContentHash: result.ContentHash(),
		SavedAt:     record.ProcessedAt,
	})
	return result, nil
}

func (s *LocalSink) save(
	subdir string,
	prefix string,
	title string,
	pageURL string,
	record any,
) (WriteResult, *StorageError) {
	base, err := SanitizeFilename(title, s.maxFilenameLength-len(prefix))
	if err != nil {
		// Titles made only of punctuation still need a stable name.
		base = "page_" + hashutil.ShortHash(pageURL, 12)
	}
	base = prefix + base

	data, err := encode(record)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.outputDir, subdir)
	path := s.resolvePath(dir, base, pageURL)

	if writeErr := fileutil.WriteFileAtomic(path, data); writeErr != nil {
		return WriteResult{}, &StorageError{
			Message:   writeErr.Error(),
			Retryable: failure.IsRetryable(writeErr),
			Cause:     ErrCauseWriteFailure,
			Path:      path,
		}
	}
	s.owners[path] = pageURL

	contentHash, _ := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	return NewWriteResult(hashutil.ShortHash(pageURL, urlHashLength), path, contentHash), nil
}

// resolvePath returns the file that pageURL owns in dir. The plain title
// wins unless another URL already owns it.
func (s *LocalSink) resolvePath(dir string, base string, pageURL string) string {
	path := filepath.Join(dir, base+".json")
	owner := s.ownerOf(path)
	if owner == "" || owner == pageURL {
		return path
	}

	suffix := "_" + hashutil.ShortHash(pageURL, urlHashLength)
	return filepath.Join(dir, truncateBytes(base, s.maxFilenameLength-len(suffix))+suffix+".json")
}

func (s *LocalSink) ownerOf(path string) string {
	if owner, ok := s.owners[path]; ok {
		return owner
	}

	var existing struct {
		URL string `json:"url"`
	}
	if err := fileutil.ReadJSON(path, &existing); err != nil {
		return ""
	}
	s.owners[path] = existing.URL
	return existing.URL
}

func (s *LocalSink) index(entry IndexEntry) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexRecord(entry); err != nil {
		s.recordError("LocalSink.index", entry.URL, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseIndexFailure,
			Path:      entry.Path,
		})
	}
}

func (s *LocalSink) recordError(callerMethod string, pageURL string, err *StorageError) {
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		callerMethod,
		mapStorageErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, pageURL),
			metadata.NewAttr(metadata.AttrWritePath, err.Path),
		},
	)
}

// encode writes indented JSON without HTML escaping so markdown stays
// readable in the file.
func encode(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
