package trigram

// TokenID is the compact identifier a Dictionary assigns to a token.
type TokenID uint32

// Dictionary is a bidirectional mapping between token text and TokenID.
// Ids are assigned sequentially from 0 in first-seen order and are never
// reused or removed.
type Dictionary struct {
	ids    map[string]TokenID
	tokens []string
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{ids: make(map[string]TokenID)}
}

// IDFor returns the id of token, allocating the next id if token has not
// been seen before.
func (d *Dictionary) IDFor(token string) TokenID {
	if id, ok := d.ids[token]; ok {
		return id
	}
	id := TokenID(len(d.tokens))
	d.ids[token] = id
	d.tokens = append(d.tokens, token)
	return id
}

// Lookup returns the id of token without allocating one.
func (d *Dictionary) Lookup(token string) (TokenID, bool) {
	id, ok := d.ids[token]
	return id, ok
}

// TokenFor returns the text of an id previously returned by IDFor.
// It panics for ids the dictionary never issued.
func (d *Dictionary) TokenFor(id TokenID) string {
	return d.tokens[id]
}

// Len returns the number of distinct tokens.
func (d *Dictionary) Len() int {
	return len(d.tokens)
}
