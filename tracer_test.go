package warpgrid

import (
	"bytes"
	"net"
	"strings"
	"testing"
)

func TestTraceLogsCallAndResult(t *testing.T) {
	withHost(t, &fakeHost{files: map[string][]byte{"/f": []byte("hi")}})
	var buf bytes.Buffer
	tr := Trace(&buf, NewPatches())

	fd, errno := tr.Open("/f", 0)
	if errno != ESUCCESS {
		t.Fatalf("Open() errno = %v", errno)
	}

	out := buf.String()
	if !strings.Contains(out, `Open("/f"`) {
		t.Fatalf("trace output missing call: %q", out)
	}
	if !strings.Contains(out, "ESUCCESS") {
		t.Fatalf("trace output missing outcome: %q", out)
	}
	if fd == 0 {
		t.Fatal("expected a non-zero virtual fd")
	}
}

func TestTraceWrapsEveryPatchesMethod(t *testing.T) {
	withHost(t, &fakeHost{
		files:          map[string][]byte{"/f": []byte("hi")},
		connectManaged: true,
		connectHandle:  1,
		recvData:       []byte("y"),
	})
	var buf bytes.Buffer
	tr := Trace(&buf, NewPatches())

	tr.Open("/f", 0)
	tr.FOpen("/f", "r")
	tr.Read(3, make([]byte, 1))
	tr.LSeek(3, 0, SeekSet)
	tr.Write(3, []byte("x"))
	tr.Connect(9, "db.internal", 5432)
	tr.Send(9, []byte("x"))
	tr.Recv(9, make([]byte, 1), false)
	tr.GetAddrInfo("host", "", AddrInfoHints{NumericHost: true}, 0)
	tr.GetHostByName("")
	tr.GetNameInfo(net.ParseIP("10.0.0.1"), 80, InetFamily, SizeofSockaddrIn, NINumericHost, 16, 0)
	tr.Close(9)

	out := buf.String()
	for _, want := range []string{"Open(", "FOpen(", "Read(", "LSeek(", "Write(", "Connect(", "Send(", "Recv(", "GetAddrInfo(", "GetHostByName(", "GetNameInfo(", "Close("} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q call", want)
		}
	}
}
