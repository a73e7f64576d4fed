/*
Package fetch is the outbound HTTP client behind the fetch capability.

Requests go through a resty client whose transport is a go-retryablehttp
round tripper, so transient connection failures and 5xx responses are
retried with backoff. A token bucket (x/time/rate) bounds the request rate
and one circuit breaker per host fails fast when a remote keeps failing.

Responses are capped in size. Structured payloads are decoded by content
type or by an explicit format:

  - json: bytedance/sonic
  - yaml: goccy/go-yaml
  - toml: pelletier/go-toml/v2
  - html: goquery, after charset detection (chardet, x/net/html/charset)

Only http and https URLs are accepted.
*/
package fetch
