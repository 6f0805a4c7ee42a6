package mail

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"yamdb/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one connection and speaks just enough SMTP to take
// a message. It returns the DATA payload on the channel.
func fakeSMTPServer(t *testing.T) (host string, port int, got <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		write := func(s string) { conn.Write([]byte(s + "\r\n")) }
		write("220 localhost ESMTP")

		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					write("250 OK")
					continue
				}
				data.WriteString(line)
				continue
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 localhost")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				write("250 OK")
			case cmd == "DATA":
				inData = true
				write("354 go ahead")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("250 OK")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestSMTPSender_Send(t *testing.T) {
	host, port, got := fakeSMTPServer(t)
	sender := NewSMTPSender(SMTPConfig{Host: host, Port: port, From: "noreply@yamdb.local"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sender.Send(ctx, Message{To: "reader@example.com", Subject: "Confirmation code", Body: "Confirmation code: abc"})
	require.NoError(t, err)

	select {
	case payload := <-got:
		assert.Contains(t, payload, "To: reader@example.com")
		assert.Contains(t, payload, "Subject: Confirmation code")
		assert.Contains(t, payload, "Confirmation code: abc")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive a message")
	}
}

func TestSMTPSender_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@yamdb.local"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = sender.Send(ctx, Message{To: "reader@example.com"})
	assert.ErrorContains(t, err, "failed to connect to SMTP server")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(&config.Config{EmailBackend: "console"})
	require.NoError(t, err)
	assert.IsType(t, ConsoleSender{}, s)

	s, err = NewSender(&config.Config{EmailBackend: "smtp", SMTPHost: "mail", SMTPPort: 25})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(&config.Config{EmailBackend: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestConsoleSender_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ConsoleSender{}.Send(ctx, Message{To: "x@example.com"}), context.Canceled)
}
