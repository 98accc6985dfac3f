package pagination

// Page sizes used by the listing operations.
const (
	FeedPageSize           = 5
	UserSearchPageSize     = 5
	FollowerTweetsPageSize = 3
	HashtagPageSize        = 5
	TextPageSize           = 10
)

// Cursor identifies one page of an ordered result set. Pages are 1-based and
// the size is fixed for the lifetime of a listing. A Cursor is a value; Next
// and Prev return new cursors.
type Cursor struct {
	page int
	size int
}

// New returns a cursor positioned on the first page.
func New(size int) Cursor {
	return At(1, size)
}

// At returns a cursor on the given page. Pages below 1 are clamped to 1 and
// sizes below 1 are coerced to 1.
func At(page, size int) Cursor {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	return Cursor{page: page, size: size}
}

func (c Cursor) Page() int {
	if c.page < 1 {
		return 1
	}
	return c.page
}

func (c Cursor) Size() int {
	if c.size < 1 {
		return 1
	}
	return c.size
}

// Offset is the number of rows skipped before this page.
func (c Cursor) Offset() int {
	return (c.Page() - 1) * c.Size()
}

// Limit is the maximum number of rows on this page.
func (c Cursor) Limit() int {
	return c.Size()
}

func (c Cursor) Next() Cursor {
	return At(c.Page()+1, c.Size())
}

// Prev moves back one page and never goes below page 1.
func (c Cursor) Prev() Cursor {
	return At(c.Page()-1, c.Size())
}

func (c Cursor) IsFirst() bool {
	return c.Page() == 1
}

// HasMore reports whether a page that returned n rows was full, meaning a
// following page may hold more rows.
func (c Cursor) HasMore(n int) bool {
	return n >= c.Size()
}
