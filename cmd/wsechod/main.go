// Command wsechod is a small demo for the ws-wrapper protocol. Run it with
// -listen to serve a websocket endpoint that answers "echo" and "add"
// requests, and with -connect to issue those requests against it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	wswrapper "github.com/RFreij/ws-wrapper"
)

var (
	listenAddr = flag.String("listen", "", "serve a websocket endpoint on this address")
	connectURL = flag.String("connect", "", "connect to a ws:// URL and issue demo requests")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func serveWs(w http.ResponseWriter, r *http.Request) {
	wsconn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade: ", err)
		return
	}

	sock := wswrapper.NewWebSocket(wsconn)
	conn := wswrapper.New(sock)
	conn.Set("remote", r.RemoteAddr)

	conn.Of("demo").On("echo", func(ev *wswrapper.Event) (any, error) {
		args := make([]json.RawMessage, len(ev.Args))
		copy(args, ev.Args)
		return args, nil
	})
	conn.On("add", func(ev *wswrapper.Event) (any, error) {
		var a, b float64
		if err := ev.Decode(&a, &b); err != nil {
			return nil, err
		}
		return a + b, nil
	})
	conn.OnDisconnect = func(wasOpen bool) {
		log.Print("client gone: ", conn.Get("remote"), " wasOpen ", wasOpen)
	}

	if err := sock.Listen(); err != nil {
		log.Print("listen: ", err)
	}
}

func runClient(url string) error {
	sock := wswrapper.Dial(url, nil)
	conn := wswrapper.New(sock)
	conn.RequestTimeout = time.Second * 10
	conn.OnError = func(err error) { log.Print("socket error: ", err) }
	go sock.Listen()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	call, err := conn.Request("add", 2, 3)
	if err != nil {
		return err
	}
	var sum float64
	if err = call.Await(ctx, &sum); err != nil {
		return err
	}
	fmt.Println("add(2, 3) =", sum)

	call, err = conn.Of("demo").Request("echo", "hello", 42)
	if err != nil {
		return err
	}
	var echoed []json.RawMessage
	if err = call.Await(ctx, &echoed); err != nil {
		return err
	}
	fmt.Println("echo:", toStrings(echoed))

	return conn.Disconnect(websocket.CloseNormalClosure, "done")
}

func toStrings(raw []json.RawMessage) (out []string) {
	for _, r := range raw {
		out = append(out, string(r))
	}
	return
}

func main() {
	flag.Parse()
	switch {
	case *listenAddr != "":
		http.HandleFunc("/ws", serveWs)
		log.Print("listening on ", *listenAddr)
		log.Fatal(http.ListenAndServe(*listenAddr, nil))
	case *connectURL != "":
		if err := runClient(*connectURL); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
	}
}
