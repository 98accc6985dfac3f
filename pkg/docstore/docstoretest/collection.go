// Package docstoretest provides an in-memory docstore.Collection that
// evaluates the query subset used by the search engine and loader: $and,
// $or, $regex with $options, comparison operators, sort/skip/limit, and the
// $match, $unwind, $group, $sort, $skip and $limit aggregation stages.
package docstoretest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
)

var _ docstore.Collection = (*Collection)(nil)

// Collection stores documents in insertion order.
type Collection struct {
	mu    sync.Mutex
	docs  []bson.D
	err   error
	calls map[string]int
}

func New() *Collection {
	return &Collection{calls: make(map[string]int)}
}

// FailWith makes every subsequent call return err. A nil err restores
// normal behavior.
func (c *Collection) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns how many times method was invoked.
func (c *Collection) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection) enter(method string) error {
	c.calls[method]++
	return c.err
}

// InsertOne implements docstore.Collection
func (c *Collection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("InsertOne"); err != nil {
		return nil, err
	}

	id, err := c.insert(document)
	if err != nil {
		return nil, err
	}
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

// InsertMany implements docstore.Collection
func (c *Collection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("InsertMany"); err != nil {
		return nil, err
	}

	res := &mongo.InsertManyResult{}
	for _, doc := range documents {
		id, err := c.insert(doc)
		if err != nil {
			return res, err
		}
		res.InsertedIDs = append(res.InsertedIDs, id)
	}
	return res, nil
}

func (c *Collection) insert(document interface{}) (interface{}, error) {
	doc, err := normalize(document)
	if err != nil {
		return nil, err
	}
	id, ok := get(doc, "_id")
	if !ok || id == nil {
		id = primitive.NewObjectID()
		doc = append(bson.D{{Key: "_id", Value: id}}, doc...)
	}
	c.docs = append(c.docs, doc)
	return id, nil
}

// DeleteMany implements docstore.Collection
func (c *Collection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("DeleteMany"); err != nil {
		return nil, err
	}

	f, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	kept := c.docs[:0]
	var deleted int64
	for _, doc := range c.docs {
		ok, err := matches(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return &mongo.DeleteResult{DeletedCount: deleted}, nil
}

// Find implements docstore.Collection
func (c *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Find"); err != nil {
		return nil, err
	}

	f, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	out, err := filterDocs(c.docs, f)
	if err != nil {
		return nil, err
	}

	fo := options.MergeFindOptions(opts...)
	if fo.Sort != nil {
		spec, err := normalize(fo.Sort)
		if err != nil {
			return nil, err
		}
		sortDocs(out, spec)
	}
	if fo.Skip != nil {
		out = skipDocs(out, *fo.Skip)
	}
	if fo.Limit != nil {
		out = limitDocs(out, *fo.Limit)
	}
	return cursor(out)
}

// Aggregate implements docstore.Collection
func (c *Collection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Aggregate"); err != nil {
		return nil, err
	}

	stages, err := stagesOf(pipeline)
	if err != nil {
		return nil, err
	}

	docs := append([]bson.D(nil), c.docs...)
	for _, stage := range stages {
		if len(stage) != 1 {
			return nil, fmt.Errorf("stage must have exactly one operator, got %d", len(stage))
		}
		op, arg := stage[0].Key, stage[0].Value
		switch op {
		case "$match":
			f, err := normalize(arg)
			if err != nil {
				return nil, err
			}
			if docs, err = filterDocs(docs, f); err != nil {
				return nil, err
			}
		case "$unwind":
			if docs, err = unwind(docs, arg); err != nil {
				return nil, err
			}
		case "$group":
			spec, err := normalize(arg)
			if err != nil {
				return nil, err
			}
			if docs, err = group(docs, spec); err != nil {
				return nil, err
			}
		case "$sort":
			spec, err := normalize(arg)
			if err != nil {
				return nil, err
			}
			sortDocs(docs, spec)
		case "$skip":
			docs = skipDocs(docs, toInt64(arg))
		case "$limit":
			docs = limitDocs(docs, toInt64(arg))
		default:
			return nil, fmt.Errorf("unsupported stage %s", op)
		}
	}
	return cursor(docs)
}

func cursor(docs []bson.D) (*mongo.Cursor, error) {
	out := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

// normalize converts any document value into a bson.D with nested
// documents as bson.D and arrays as bson.A.
func normalize(v interface{}) (bson.D, error) {
	if v == nil {
		return bson.D{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return d, nil
}

func stagesOf(pipeline interface{}) ([]bson.D, error) {
	var items []interface{}
	switch p := pipeline.(type) {
	case mongo.Pipeline:
		for _, s := range p {
			items = append(items, s)
		}
	case []bson.D:
		for _, s := range p {
			items = append(items, s)
		}
	case bson.A:
		items = p
	case []interface{}:
		items = p
	default:
		return nil, fmt.Errorf("unsupported pipeline type %T", pipeline)
	}

	stages := make([]bson.D, 0, len(items))
	for _, item := range items {
		s, err := normalize(item)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func get(d bson.D, key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// lookup resolves a dotted path through nested documents.
func lookup(d bson.D, path string) (interface{}, bool) {
	var cur interface{} = d
	for _, part := range strings.Split(path, ".") {
		doc, ok := asDoc(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = get(doc, part); !ok {
			return nil, false
		}
	}
	return cur, true
}

func asDoc(v interface{}) (bson.D, bool) {
	switch t := v.(type) {
	case bson.D:
		return t, true
	case bson.M:
		d := make(bson.D, 0, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: t[k]})
		}
		return d, true
	}
	return nil, false
}

func asArray(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []interface{}:
		return t, true
	}
	return nil, false
}

// setPath returns a copy of d with the value at a top-level or nested path
// replaced.
func setPath(d bson.D, path string, v interface{}) bson.D {
	head, rest, nested := strings.Cut(path, ".")
	out := make(bson.D, 0, len(d))
	for _, e := range d {
		if e.Key != head {
			out = append(out, e)
			continue
		}
		if !nested {
			out = append(out, bson.E{Key: head, Value: v})
			continue
		}
		child, _ := asDoc(e.Value)
		out = append(out, bson.E{Key: head, Value: setPath(child, rest, v)})
	}
	return out
}

func filterDocs(docs []bson.D, f bson.D) ([]bson.D, error) {
	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		ok, err := matches(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func matches(doc, filter bson.D) (bool, error) {
	for _, e := range filter {
		var (
			ok  bool
			err error
		)
		switch e.Key {
		case "$and", "$or":
			ok, err = matchLogical(doc, e.Key, e.Value)
		default:
			ok, err = matchField(doc, e.Key, e.Value)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLogical(doc bson.D, op string, v interface{}) (bool, error) {
	clauses, ok := asArray(v)
	if !ok {
		return false, fmt.Errorf("%s requires an array", op)
	}
	for _, c := range clauses {
		sub, ok := asDoc(c)
		if !ok {
			return false, fmt.Errorf("%s clause must be a document", op)
		}
		matched, err := matches(doc, sub)
		if err != nil {
			return false, err
		}
		if op == "$or" && matched {
			return true, nil
		}
		if op == "$and" && !matched {
			return false, nil
		}
	}
	return op == "$and", nil
}

func matchField(doc bson.D, path string, cond interface{}) (bool, error) {
	value, present := lookup(doc, path)

	if re, ok := cond.(primitive.Regex); ok {
		return matchRegex(value, re.Pattern, re.Options)
	}

	ops, ok := asDoc(cond)
	if !ok || len(ops) == 0 || !strings.HasPrefix(ops[0].Key, "$") {
		return present && compareValues(value, cond) == 0, nil
	}

	for _, op := range ops {
		var matched bool
		switch op.Key {
		case "$regex":
			pattern, options := "", ""
			switch p := op.Value.(type) {
			case string:
				pattern = p
			case primitive.Regex:
				pattern, options = p.Pattern, p.Options
			default:
				return false, fmt.Errorf("$regex requires a string, got %T", op.Value)
			}
			if o, ok := get(ops, "$options"); ok {
				options, _ = o.(string)
			}
			var err error
			if matched, err = matchRegex(value, pattern, options); err != nil {
				return false, err
			}
		case "$options":
			continue
		case "$eq":
			matched = present && compareValues(value, op.Value) == 0
		case "$ne":
			matched = !present || compareValues(value, op.Value) != 0
		case "$gt":
			matched = present && compareValues(value, op.Value) > 0
		case "$gte":
			matched = present && compareValues(value, op.Value) >= 0
		case "$lt":
			matched = present && compareValues(value, op.Value) < 0
		case "$lte":
			matched = present && compareValues(value, op.Value) <= 0
		case "$exists":
			want, _ := op.Value.(bool)
			matched = present == want
		default:
			return false, fmt.Errorf("unsupported operator %s", op.Key)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func matchRegex(value interface{}, pattern, options string) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, nil
	}
	flags := ""
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags += string(o)
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re.MatchString(s), nil
}

func sortDocs(docs []bson.D, spec bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range spec {
			a, _ := lookup(docs[i], key.Key)
			b, _ := lookup(docs[j], key.Key)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if toInt64(key.Value) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func skipDocs(docs []bson.D, n int64) []bson.D {
	if n <= 0 {
		return docs
	}
	if n >= int64(len(docs)) {
		return []bson.D{}
	}
	return docs[n:]
}

// limitDocs treats zero as no limit and a negative limit as its absolute
// value, as the server does.
func limitDocs(docs []bson.D, n int64) []bson.D {
	if n < 0 {
		n = -n
	}
	if n == 0 || n >= int64(len(docs)) {
		return docs
	}
	return docs[:n]
}

func unwind(docs []bson.D, arg interface{}) ([]bson.D, error) {
	path, ok := arg.(string)
	if !ok {
		spec, isDoc := asDoc(arg)
		if !isDoc {
			return nil, fmt.Errorf("$unwind requires a field path")
		}
		p, _ := get(spec, "path")
		if path, ok = p.(string); !ok {
			return nil, fmt.Errorf("$unwind requires a field path")
		}
	}
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("$unwind path must start with $")
	}
	path = strings.TrimPrefix(path, "$")

	var out []bson.D
	for _, doc := range docs {
		v, present := lookup(doc, path)
		if !present || v == nil {
			continue
		}
		arr, isArray := asArray(v)
		if !isArray {
			out = append(out, doc)
			continue
		}
		for _, item := range arr {
			out = append(out, setPath(doc, path, item))
		}
	}
	return out, nil
}

func evalExpr(doc bson.D, expr interface{}) interface{} {
	if s, ok := expr.(string); ok && strings.HasPrefix(s, "$") {
		v, _ := lookup(doc, strings.TrimPrefix(s, "$"))
		return v
	}
	return expr
}

func group(docs []bson.D, spec bson.D) ([]bson.D, error) {
	idExpr, ok := get(spec, "_id")
	if !ok {
		return nil, fmt.Errorf("$group requires _id")
	}

	type bucket struct {
		id     interface{}
		fields bson.D
		seen   map[string]bool
	}
	var (
		order   []string
		buckets = map[string]*bucket{}
	)

	for _, doc := range docs {
		id := evalExpr(doc, idExpr)
		key := fmt.Sprintf("%T:%v", id, id)
		b, exists := buckets[key]
		if !exists {
			b = &bucket{id: id, seen: map[string]bool{}}
			buckets[key] = b
			order = append(order, key)
		}

		for _, field := range spec {
			if field.Key == "_id" {
				continue
			}
			acc, ok := asDoc(field.Value)
			if !ok || len(acc) != 1 {
				return nil, fmt.Errorf("$group field %s requires one accumulator", field.Key)
			}
			v := evalExpr(doc, acc[0].Value)
			cur, _ := get(b.fields, field.Key)
			first := !b.seen[field.Key]

			var next interface{}
			switch acc[0].Key {
			case "$first":
				if !first {
					continue
				}
				next = v
			case "$last":
				next = v
			case "$max":
				if v == nil {
					if first {
						next = nil
						break
					}
					continue
				}
				if !first && cur != nil && compareValues(v, cur) <= 0 {
					continue
				}
				next = v
			case "$min":
				if v == nil {
					if first {
						next = nil
						break
					}
					continue
				}
				if !first && cur != nil && compareValues(v, cur) >= 0 {
					continue
				}
				next = v
			case "$sum":
				total := toFloat(cur)
				if n, ok := numeric(v); ok {
					total += n
				}
				next = total
			default:
				return nil, fmt.Errorf("unsupported accumulator %s", acc[0].Key)
			}

			b.seen[field.Key] = true
			if hasKey(b.fields, field.Key) {
				b.fields = setPath(b.fields, field.Key, next)
			} else {
				b.fields = append(b.fields, bson.E{Key: field.Key, Value: next})
			}
		}
	}

	out := make([]bson.D, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		out = append(out, append(bson.D{{Key: "_id", Value: b.id}}, b.fields...))
	}
	return out, nil
}

func hasKey(d bson.D, key string) bool {
	_, ok := get(d, key)
	return ok
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toFloat(v interface{}) float64 {
	n, _ := numeric(v)
	return n
}

func toInt64(v interface{}) int64 {
	n, _ := numeric(v)
	return int64(n)
}

// typeRank orders values of different types the way the server does.
func typeRank(v interface{}) int {
	switch v.(type) {
	case nil, primitive.Null:
		return 0
	case int, int32, int64, float64:
		return 1
	case string:
		return 2
	case bson.D, bson.M:
		return 3
	case bson.A, []interface{}:
		return 4
	case primitive.ObjectID:
		return 5
	case bool:
		return 6
	case primitive.DateTime:
		return 7
	}
	return 8
}

func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case primitive.ObjectID:
		y := b.(primitive.ObjectID)
		return strings.Compare(x.Hex(), y.Hex())
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case primitive.DateTime:
		y := b.(primitive.DateTime)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	if fa, ok := numeric(a); ok {
		fb, _ := numeric(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return 0
}
