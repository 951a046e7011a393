package drivers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func mockSlave(t testing.TB, token string) (*MockTransport, *httptest.Server) {
	t.Helper()

	mt := newMock(t)
	slave := NewRegisterSlave(mt, "", token)
	server := httptest.NewServer(slave.Handler())
	t.Cleanup(server.Close)
	return mt, server
}

func TestRemoteTransport(t *testing.T) {
	mt, server := mockSlave(t, "secret")
	mt.SetInput(0, 0, []byte{0x3C, 0x00, 0x00, 0x81})

	rt := &RemoteTransport{Host: server.URL, Token: "secret"}
	err := rt.Setup(context.Background())
	if err != nil {
		t.Fatalf("Setup returned err: %v", err)
	}
	assertBools(t, rt.IsReady(), true)

	t.Run("read", func(t *testing.T) {
		got, err := rt.Read(0, 0, 4)
		if err != nil {
			t.Fatalf("Read returned err: %v", err)
		}
		assertBytes(t, got, []byte{0x3C, 0x00, 0x00, 0x81})
	})

	t.Run("write", func(t *testing.T) {
		err := rt.Write(0, 8, []byte{0xA0})
		if err != nil {
			t.Fatalf("Write returned err: %v", err)
		}
		assertBytes(t, mt.Output(0, 8, 1), []byte{0xA0})
	})

	t.Run("remote error", func(t *testing.T) {
		_, err := rt.Read(3, 0, 1)
		if err == nil {
			t.Error("read of missing bar should fail")
		}
	})
}

func TestRemoteTransportToken(t *testing.T) {
	_, server := mockSlave(t, "secret")

	rt := &RemoteTransport{Host: server.URL, Token: "wrong"}
	err := rt.Setup(context.Background())
	if err == nil {
		t.Fatal("Setup with wrong token should fail")
	}
	assertBools(t, rt.IsReady(), false)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/bar/0/offset/0/size/1", nil)
	req.Header.Set(remoteTokenHeader, "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("got status %d want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRemoteTransportNotReadyRemote(t *testing.T) {
	mt, server := mockSlave(t, "")
	mt.Close()

	rt := &RemoteTransport{Host: server.URL}
	if err := rt.Setup(context.Background()); err == nil {
		t.Error("Setup against a closed remote transport should fail")
	}
}
