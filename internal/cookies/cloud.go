package cookies

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Cookie is one browser cookie as exported by CookieCloud.
type Cookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	ExpirationDate float64 `json:"expirationDate"`
	Secure         bool    `json:"secure"`
	HostOnly       bool    `json:"hostOnly"`
}

// CloudClient fetches and decrypts cookie snapshots from a CookieCloud
// server.
type CloudClient struct {
	baseURL  string
	uuid     string
	password string
	http     *http.Client
}

// NewCloudClient returns a client for the given server. The password is
// the CookieCloud end-to-end encryption secret, not an HTTP credential.
func NewCloudClient(baseURL, uuid, password string) *CloudClient {
	return &CloudClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		uuid:     uuid,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type cloudResponse struct {
	Encrypted string `json:"encrypted"`
}

type cloudPayload struct {
	CookieData map[string][]Cookie `json:"cookie_data"`
}

// Fetch downloads the encrypted cookie snapshot and decrypts it into a
// map of domain to cookies.
func (c *CloudClient) Fetch(ctx context.Context) (map[string][]Cookie, error) {
	endpoint := c.baseURL + "/get/" + url.PathEscape(c.uuid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build cookiecloud request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cookiecloud snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cookiecloud returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read cookiecloud response: %w", err)
	}
	var envelope cloudResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode cookiecloud envelope: %w", err)
	}
	if envelope.Encrypted == "" {
		return nil, fmt.Errorf("cookiecloud response has no encrypted payload")
	}
	plaintext, err := decryptSnapshot(envelope.Encrypted, c.uuid, c.password)
	if err != nil {
		return nil, err
	}
	var payload cloudPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("decode cookie payload: %w", err)
	}
	return payload.CookieData, nil
}

// decryptSnapshot reverses the CookieCloud client-side encryption: the
// passphrase is the first 16 hex chars of md5("<uuid>-<password>"), and
// the ciphertext is OpenSSL-compatible salted AES-256-CBC.
func decryptSnapshot(encrypted, uuid, password string) ([]byte, error) {
	sum := md5.Sum([]byte(uuid + "-" + password))
	passphrase := hex.EncodeToString(sum[:])[:16]

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decode encrypted payload: %w", err)
	}
	if len(raw) < 16 || string(raw[:8]) != "Salted__" {
		return nil, fmt.Errorf("encrypted payload is not OpenSSL salted format")
	}
	salt := raw[8:16]
	ciphertext := raw[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a block multiple", len(ciphertext))
	}

	key, iv := evpBytesToKey([]byte(passphrase), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = stripPKCS7(plaintext)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// evpBytesToKey derives key material the way OpenSSL's EVP_BytesToKey
// does with MD5 and one iteration.
func evpBytesToKey(passphrase, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived []byte
	var prev []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding, wrong credentials likely")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding, wrong credentials likely")
		}
	}
	return data[:len(data)-pad], nil
}

// WriteFiles persists one Netscape-format cookies.txt per domain under
// dir, keyed by the domain with any leading dot stripped. Existing files
// for the same domain are replaced.
func WriteFiles(dir string, data map[string][]Cookie) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	for domain, cookies := range data {
		name := strings.TrimPrefix(domain, ".")
		if name == "" || len(cookies) == 0 {
			continue
		}
		path := filepath.Join(dir, name+".txt")
		if err := os.WriteFile(path, netscapeFile(cookies), 0o600); err != nil {
			return fmt.Errorf("write cookie file %s: %w", path, err)
		}
	}
	return nil
}

func netscapeFile(cookies []Cookie) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Netscape HTTP Cookie File\n")
	sorted := make([]Cookie, len(cookies))
	copy(sorted, cookies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, c := range sorted {
		domain := c.Domain
		includeSubdomains := "TRUE"
		if c.HostOnly || !strings.HasPrefix(domain, ".") {
			includeSubdomains = "FALSE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, includeSubdomains, path, secure, int64(c.ExpirationDate), c.Name, c.Value)
	}
	return buf.Bytes()
}
