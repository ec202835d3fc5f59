package roamapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// escape makes a string safe to embed in a datalog string literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// QueryPageUID finds the UID of a page by exact title.
func QueryPageUID(title string) string {
	return fmt.Sprintf(`[:find ?uid . :where [?e :node/title "%s"] [?e :block/uid ?uid]]`, escape(title))
}

// QueryLastCreatedChild finds the most recently created direct child of a
// block. This is how a freshly created block's UID is resolved: the write
// endpoint does not return it. Racy under concurrent writers.
func QueryLastCreatedChild(parentUID string) string {
	return fmt.Sprintf(`[:find ?uid . :where [?p :block/uid "%s"] [?p :block/children ?c] [?c :block/uid ?uid] (not-join [?c] [?p :block/children ?c2] [?c2 :create/time ?t2] [?c :create/time ?t] [(> ?t2 ?t)])]`, escape(parentUID))
}

// QueryBlockUIDByContent finds a block on a page by exact content match.
// Used for anchor blocks ("References::", "[[Log/DEVONthink]]").
func QueryBlockUIDByContent(pageUID, content string) string {
	return fmt.Sprintf(`[:find ?uid . :where [?e :block/uid ?uid] [?e :block/string "%s"] [?e :block/page ?p] [?p :block/uid "%s"]]`, escape(content), escape(pageUID))
}

// QueryBlockContent fetches the content of a block by UID.
func QueryBlockContent(uid string) string {
	return fmt.Sprintf(`[:find ?string . :where [?b :block/uid "%s"] [?b :block/string ?string]]`, escape(uid))
}

// QueryPageTitlesContaining searches page titles by substring.
func QueryPageTitlesContaining(s string) string {
	return fmt.Sprintf(`[:find [?title ...] :where [?e :node/title ?title] [(clojure.string/includes? ?title "%s")]]`, escape(s))
}

// QueryPageReferences finds the titles of pages whose blocks reference
// the given page.
func QueryPageReferences(title string) string {
	return fmt.Sprintf(`[:find [?ref_title ...] :where [?e :node/title "%s"] [?ref :block/refs ?e] [?ref_page :block/children ?ref] [?ref_page :node/title ?ref_title]]`, escape(title))
}

// SelectorPageTree pulls a page's title and full recursive block tree,
// ordered, for markdown export.
const SelectorPageTree = `[:node/title :block/string :block/uid :block/order {:block/children ...}]`

// BlockUIDRef builds a lookup ref for pull by block UID.
func BlockUIDRef(uid string) string {
	return fmt.Sprintf(`[:block/uid "%s"]`, escape(uid))
}

// ScalarString decodes a find-scalar (`?x .`) query result. ok is false
// when the result was empty.
func ScalarString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, s != ""
}

// StringSlice decodes a find-coll (`[?x ...]`) query result.
func StringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
