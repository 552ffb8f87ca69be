package internal

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var (
	LocalAddr       = "localhost"
	LocalPort       = 2222
	LocalAddrString = "localhost:2222"
)

type exitStatusMsg struct {
	Status uint32
}

// ExecReply scripts the test server's answer for exec requests whose
// payload contains Match. Unmatched commands succeed with empty output.
type ExecReply struct {
	Match  string
	Stdout string
	Status uint32
}

// SetupTestSSH runs an in-process SSH+SFTP server answering exec
// requests from the given replies. It stops when done is closed or
// signalled.
func SetupTestSSH(done chan bool, replies []ExecReply) {
	// Open listen socket
	listener, err := net.Listen("tcp", LocalAddrString)
	if err != nil {
		log.Fatalln(err)
	}

	defer listener.Close()

	for {
		// Accept TCP connection
		conn, err := listener.Accept()
		if err != nil {
			fmt.Println(err)
			break
		}

		config := getServerConfig()

		// Perform SSH handshake
		sshConn, newChannels, _, err := ssh.NewServerConn(conn, config)
		if err != nil {
			_ = conn.Close()
			continue
		}

		// Handle new channels
		go handleChannels(newChannels, replies)

		select {
		case <-done:
			sshConn.Close()
			conn.Close()

			return
		default:
		}
	}
}

func getServerConfig() *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		NoClientAuth: true,
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalln(err)
	}
	hostKey, err := ssh.NewSignerFromKey(key)
	if err != nil {
		log.Fatalln(err)
	}
	config.AddHostKey(hostKey)
	return config
}

func handleChannels(channels <-chan ssh.NewChannel, replies []ExecReply) {
	for {
		// When a new channel comes in, handle it
		newChannel, ok := <-channels
		if !ok {
			// Connection is closed
			break
		}
		go handleChannel(newChannel, replies)
	}
}

func handleChannel(newChannel ssh.NewChannel, replies []ExecReply) {
	// Accept all channels. Normally, we would check if it s a "session "channel
	channel, requests, err := newChannel.Accept()
	if err != nil {
		log.Println(err)
		return
	}

	for {
		req, ok := <-requests

		if !ok {
			break
		}
		switch req.Type {
		case "subsystem":
			go func() {
				defer channel.Close() // SSH_MSG_CHANNEL_CLOSE
				sftpServer, err := sftp.NewServer(channel)
				if err != nil {
					return
				}
				defer sftpServer.Close()
				_ = sftpServer.Serve()

			}()

			req.Reply(true, nil)

		case "exec":
			reply := ExecReply{}
			payload := string(req.Payload)
			for _, r := range replies {
				if strings.Contains(payload, r.Match) {
					reply = r
					break
				}
			}

			if req.WantReply {
				_ = req.Reply(true, nil)
			}
			if reply.Stdout != "" {
				channel.Write([]byte(reply.Stdout))
			}
			channel.SendRequest("exit-status", false, ssh.Marshal(&exitStatusMsg{reply.Status}))
			channel.CloseWrite()
			channel.Close()
		default:
			if req.WantReply {
				_ = req.Reply(false, []byte("unsupported request"))
			}
		}
	}
}
