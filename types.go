package mocache

// DefaultDomain is the text domain of the host's own core catalog.
const DefaultDomain = "default"

// contextSeparator joins a message context and its msgid in an entry key,
// the same way compiled MO files do.
const contextSeparator = "\x04"

// Entry is a single translatable message and its translations.
type Entry struct {
	Context      string   `json:"context,omitempty"`
	Singular     string   `json:"singular"`
	Plural       string   `json:"plural,omitempty"`
	Translations []string `json:"translations"`
}

// Key returns the lookup key of the entry: the msgid, prefixed by its
// context when one is set.
func (e Entry) Key() string {
	return EntryKey(e.Context, e.Singular)
}

// EntryKey builds the key used to index an entry in a Catalog.
func EntryKey(context, singular string) string {
	if context == "" {
		return singular
	}
	return context + contextSeparator + singular
}

// Catalog is a parsed set of translated entries plus the file headers.
type Catalog struct {
	Entries map[string]Entry  `json:"entries"`
	Headers map[string]string `json:"headers"`
}

// NewCatalog returns an empty catalog ready to be filled.
func NewCatalog() *Catalog {
	return &Catalog{
		Entries: make(map[string]Entry),
		Headers: make(map[string]string),
	}
}

// Add stores an entry under its key, replacing any previous one.
func (c *Catalog) Add(e Entry) {
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	c.Entries[e.Key()] = e
}

// Translate returns the first translation for msgid, if any.
func (c *Catalog) Translate(msgid string) (string, bool) {
	return c.TranslateContext("", msgid)
}

// TranslateContext returns the first translation for msgid in the given context.
func (c *Catalog) TranslateContext(context, msgid string) (string, bool) {
	if c == nil {
		return "", false
	}
	e, ok := c.Entries[EntryKey(context, msgid)]
	if !ok || len(e.Translations) == 0 || e.Translations[0] == "" {
		return "", false
	}
	return e.Translations[0], true
}

// Merge returns a new catalog holding the entries and headers of base
// overlaid by those of c. Entries in c take precedence; entries only
// present in base are retained.
func (c *Catalog) Merge(base *Catalog) *Catalog {
	merged := NewCatalog()
	if base != nil {
		for k, e := range base.Entries {
			merged.Entries[k] = e
		}
		for k, v := range base.Headers {
			merged.Headers[k] = v
		}
	}
	if c != nil {
		for k, e := range c.Entries {
			merged.Entries[k] = e
		}
		for k, v := range c.Headers {
			merged.Headers[k] = v
		}
	}
	return merged
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// isDefaultDomain reports whether domain names the host core catalog.
func isDefaultDomain(domain string) bool {
	return domain == "" || domain == DefaultDomain
}
