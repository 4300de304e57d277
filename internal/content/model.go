package content

// DirectoryType distinguishes the two kinds of content directories a site
// repository can contain. Article directories carry per-row markdown bodies
// and media, enum directories are flat lookup tables.
type DirectoryType int

const (
	TypeEnum DirectoryType = iota
	TypeArticle
)

func (t DirectoryType) String() string {
	if t == TypeArticle {
		return "article"
	}
	return "enum"
}

// Fixed CSV column names shared by every content directory. Article
// directories additionally carry the thumbnail and description columns.
const (
	colID        = "id"
	colNameJa    = "nameJa"
	colNameEn    = "nameEn"
	colThumbnail = "thumbnail"
	colDescJa    = "descJa"
	colDescEn    = "descEn"
)

// Row is a single record of a content directory's CSV index.
// Additional holds site-specific columns beyond the fixed set, keyed by
// header name.
type Row struct {
	ID     string
	NameJa string
	NameEn string

	// Article-only fields. Empty for enum rows.
	Thumbnail string
	DescJa    string
	DescEn    string

	Additional map[string]string
}

// Directory is one scanned content directory: its CSV index plus, for
// article directories, a subdirectory per row holding article.md and media.
type Directory struct {
	Name    string
	Path    string
	Type    DirectoryType
	CSVPath string
	Rows    []Row

	// extraHeaders preserves the order of non-fixed columns as read from
	// the CSV, so a write round-trips the file without reshuffling.
	extraHeaders []string
}

// ArticleMeta is the optional YAML frontmatter of an article.md file.
type ArticleMeta struct {
	Title string   `yaml:"title,omitempty"`
	Draft bool     `yaml:"draft,omitempty"`
	Tags  []string `yaml:"tags,omitempty"`
}

func (m ArticleMeta) isZero() bool {
	return m.Title == "" && !m.Draft && len(m.Tags) == 0
}

// Article is the markdown body and media location for a single article row.
type Article struct {
	ID       string
	Path     string
	MediaDir string
	Meta     ArticleMeta
	Body     string
}
