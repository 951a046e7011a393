package drivers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const remoteTransportName = "remote"
const remoteNetClientTimeout = 2 * time.Second
const remoteTokenHeader = "registers-token"

// RemoteTransport talks to a RegisterSlave over HTTP.
type RemoteTransport struct {
	Host  string
	Token string

	baseUrl *url.URL
	client  *http.Client
	isReady bool
}

// RemoteInfo is served by the slave on /info.
type RemoteInfo struct {
	Transport string
	Ready     bool
}

func (rt *RemoteTransport) newRequest(ctx context.Context, method, path string, body io.Reader) (req *http.Request, err error) {
	reqUrl, err := rt.baseUrl.Parse(path)
	if err != nil {
		err = errors.Wrapf(err, "RemoteTransport error parsing url (%s)", path)
		return
	}
	req, err = http.NewRequestWithContext(ctx, method, reqUrl.String(), body)
	if err != nil {
		err = errors.Wrap(err, "RemoteTransport error preparing request")
		return
	}
	req.Header.Add(remoteTokenHeader, rt.Token)
	return
}

func (rt *RemoteTransport) do(req *http.Request) (body []byte, err error) {
	response, err := rt.client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "RemoteTransport request failed")
		return
	}
	defer response.Body.Close()

	body, err = io.ReadAll(response.Body)
	if err != nil {
		err = errors.Wrap(err, "RemoteTransport failed reading response")
		return
	}

	if response.StatusCode >= 300 {
		err = errors.Errorf("RemoteTransport got status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}
	return
}

func (rt *RemoteTransport) Setup(ctx context.Context) (err error) {
	rt.isReady = false
	rt.baseUrl, err = url.Parse(rt.Host)
	if err != nil {
		return errors.Wrap(err, "RemoteTransport failed to parse Host url")
	}
	rt.client = &http.Client{Timeout: remoteNetClientTimeout}

	req, err := rt.newRequest(ctx, http.MethodGet, "info", nil)
	if err != nil {
		return
	}
	body, err := rt.do(req)
	if err != nil {
		return errors.Wrap(err, "RemoteTransport Setup failed")
	}

	info := RemoteInfo{}
	err = json.Unmarshal(body, &info)
	if err != nil {
		return errors.Wrap(err, "RemoteTransport Setup: decoding response failed")
	}
	if !info.Ready {
		return errors.Errorf("RemoteTransport Setup: remote %s transport not ready", info.Transport)
	}

	rt.isReady = true
	return
}

func (rt *RemoteTransport) Read(bar, offset, size int) (data []byte, err error) {
	if !rt.isReady {
		return nil, errNotReady
	}
	err = checkAccess(bar, offset, size)
	if err != nil {
		return
	}

	req, err := rt.newRequest(context.Background(), http.MethodGet, fmt.Sprintf("bar/%d/offset/%d/size/%d", bar, offset, size), nil)
	if err != nil {
		return
	}
	body, err := rt.do(req)
	if err != nil {
		return
	}

	data, err = hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, "RemoteTransport got malformed hex")
	}
	if len(data) != size {
		return nil, errors.Errorf("RemoteTransport asked for %d bytes, got %d", size, len(data))
	}
	return
}

func (rt *RemoteTransport) Write(bar, offset int, data []byte) (err error) {
	if !rt.isReady {
		return errNotReady
	}
	err = checkAccess(bar, offset, len(data))
	if err != nil {
		return
	}

	req, err := rt.newRequest(context.Background(), http.MethodPut, fmt.Sprintf("bar/%d/offset/%d", bar, offset), strings.NewReader(hex.EncodeToString(data)))
	if err != nil {
		return
	}
	_, err = rt.do(req)
	return
}

func (rt *RemoteTransport) Close() error {
	rt.isReady = false
	return nil
}

func (rt *RemoteTransport) String() string {
	return remoteTransportName
}

func (rt *RemoteTransport) IsReady() bool {
	return rt.isReady
}
