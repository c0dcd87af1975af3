package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards returning the same value are mergeable with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)
}

func httpHygiene(m dsl.Matcher) {
	// Outbound requests must carry a context so transports stay cancellable.
	m.Match(`http.NewRequest($method, $url, $body)`).
		Report(`use http.NewRequestWithContext so upstream calls are cancellable`).
		Suggest(`http.NewRequestWithContext(ctx, $method, $url, $body)`)
}

func errorStrings(m dsl.Matcher) {
	// fmt.Errorf without %w loses the cause chain for errors.Is/As.
	m.Match(`fmt.Errorf($fmt, $*_, $err)`).
		Where(m["err"].Type.Implements("error") && !m["fmt"].Text.Matches(`.*%w.*`)).
		Report(`wrap the underlying error with %w to keep the cause chain`)
}
