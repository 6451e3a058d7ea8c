// Command stubserver runs the in-memory stub backend with a small seeded
// dataset, for developing the client against a predictable API.
package main

import (
	"flag"
	"log"
	"time"

	"sanee/messenger/internal/models"
	"sanee/messenger/internal/stub"
)

var addr = flag.String("addr", ":8787", "listen address")

func main() {
	flag.Parse()

	srv := stub.NewServer()
	srv.AddUser(models.User{ID: 1, Name: "Amira", Headline: "Logo designer", IsSeller: true, Online: true}, "token-seller")
	srv.AddUser(models.User{ID: 2, Name: "Khalid", Headline: "Startup founder"}, "token-buyer")
	srv.AddService(1, models.GigService{ID: 10, Title: "Logo design", Price: 120})
	srv.InsertMessage(models.Message{SenderID: 2, ReceiverID: 1, Body: "Hi, is the logo package available?", CreatedAt: time.Now().Add(-time.Hour)})
	srv.InsertMessage(models.Message{SenderID: 1, ReceiverID: 2, Body: "Yes! Tell me about your brand.", CreatedAt: time.Now().Add(-50 * time.Minute)})

	log.Printf("stub backend listening on %s (tokens: token-seller, token-buyer)", *addr)
	if err := srv.Router().Run(*addr); err != nil {
		log.Fatalf("stub backend failed: %v", err)
	}
}
