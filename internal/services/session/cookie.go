package session

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxCookieChunk keeps each Set-Cookie below the 4096 byte browser limit once
// the name and attributes are added.
const maxCookieChunk = 3800

type cookieJar struct {
	name   string
	secure bool
}

func (j cookieJar) chunkName(i int) string {
	return j.name + "." + strconv.Itoa(i)
}

// read returns the session value, reassembling chunks when the value was
// split.
func (j cookieJar) read(r *http.Request) (string, bool) {
	if c, err := r.Cookie(j.name); err == nil && c.Value != "" {
		return c.Value, true
	}

	var b strings.Builder
	for i := 0; ; i++ {
		c, err := r.Cookie(j.chunkName(i))
		if err != nil {
			break
		}
		b.WriteString(c.Value)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

func (j cookieJar) write(w http.ResponseWriter, r *http.Request, value string, maxAge time.Duration) {
	if len(value) <= maxCookieChunk {
		http.SetCookie(w, j.cookie(j.name, value, maxAge))
		j.expireChunks(w, r, 0)
		return
	}

	n := 0
	for start := 0; start < len(value); start += maxCookieChunk {
		end := start + maxCookieChunk
		if end > len(value) {
			end = len(value)
		}
		http.SetCookie(w, j.cookie(j.chunkName(n), value[start:end], maxAge))
		n++
	}
	if _, err := r.Cookie(j.name); err == nil {
		http.SetCookie(w, j.cookie(j.name, "", -1))
	}
	j.expireChunks(w, r, n)
}

func (j cookieJar) clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, j.cookie(j.name, "", -1))
	j.expireChunks(w, r, 0)
}

// expireChunks deletes chunk cookies the request carried from index from
// onwards.
func (j cookieJar) expireChunks(w http.ResponseWriter, r *http.Request, from int) {
	prefix := j.name + "."
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(c.Name, prefix))
		if err != nil || i < from {
			continue
		}
		http.SetCookie(w, j.cookie(c.Name, "", -1))
	}
}

func (j cookieJar) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(maxAge / time.Second)
	}
	return c
}
