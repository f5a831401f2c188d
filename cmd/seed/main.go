package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
	"github.com/shinyyama/bidboard-backend/internal/config"
	"github.com/shinyyama/bidboard-backend/internal/db"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/realtime"
	"github.com/shinyyama/bidboard-backend/internal/repository"
	"github.com/shinyyama/bidboard-backend/internal/service"
)

type seedPost struct {
	Title    string
	Category string
	Budget   int64
}

type services struct {
	posts    service.PostService
	quotes   service.QuoteService
	messages service.MessageService
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	postRepo := repository.NewPostRepository(gdb)
	_, total, err := postRepo.ListOpen(ctx, "", 1, 0)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	if total > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		log.Printf("posts already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	quoteRepo := repository.NewQuoteRepository(gdb)
	notices := service.NewNotificationService(repository.NewNotificationRepository(gdb))
	threads := service.NewThreadService(repository.NewThreadRepository(gdb), quoteRepo)
	hub := realtime.NewHub(realtime.DefaultBuffer)
	defer hub.Close()
	svc := services{
		posts:    service.NewPostService(postRepo),
		quotes:   service.NewQuoteService(quoteRepo, postRepo, threads, notices),
		messages: service.NewMessageService(repository.NewMessageRepository(gdb), threads, hub, notices),
	}

	gofakeit.Seed(42)
	var posts, quotes, threadsOpened int
	for idx, sp := range buildSeedPosts() {
		customer := fmt.Sprintf("demo-customer-%d", idx%3+1)
		p, err := svc.posts.Create(ctx, customer, model.PostInput{
			Title:       sp.Title,
			Description: gofakeit.Blurb(),
			Category:    sp.Category,
			BudgetMin:   ptr(sp.Budget / 2),
			BudgetMax:   ptr(sp.Budget),
			Images:      []string{picsumURL(sp.Category, idx+1, 1)},
		})
		if err != nil {
			return fmt.Errorf("create post %q: %w", sp.Title, err)
		}
		posts++

		var first *model.Quote
		vendors := gofakeit.IntRange(1, 4)
		for v := 1; v <= vendors; v++ {
			q, err := svc.quotes.Submit(ctx, p.ID, fmt.Sprintf("demo-vendor-%d", v),
				int64(gofakeit.IntRange(int(sp.Budget/2), int(sp.Budget))), gofakeit.IntRange(1, 21), gofakeit.Company()+": "+gofakeit.Blurb())
			if err != nil {
				return fmt.Errorf("submit quote on %q: %w", sp.Title, err)
			}
			quotes++
			if first == nil {
				first = q
			}
		}

		// every third post gets a closed deal with a short conversation
		if first == nil || idx%3 != 0 {
			continue
		}
		th, err := svc.quotes.Accept(ctx, first.ID, customer)
		if err != nil {
			return fmt.Errorf("accept quote %s: %w", first.ID, err)
		}
		threadsOpened++
		for i, sender := range []string{customer, first.VendorUID, customer} {
			if _, err := svc.messages.Append(ctx, th.ID, sender, demoChat[i]); err != nil {
				return fmt.Errorf("append message: %w", err)
			}
		}
	}

	log.Printf("seeded posts=%d quotes=%d threads=%d", posts, quotes, threadsOpened)
	return nil
}

var demoChat = []string{
	"Thanks for the quote. When could you start?",
	"I can come by on Saturday morning to take a look.",
	"Saturday works. See you then.",
}

func buildSeedPosts() []seedPost {
	type cat struct {
		Slug   string
		Budget int64
		Titles []string
	}
	categories := []cat{
		{Slug: "home-repair", Budget: 30000, Titles: []string{"Fix a leaking kitchen faucet", "Patch drywall after moving out", "Replace two interior door handles"}},
		{Slug: "furniture", Budget: 80000, Titles: []string{"Custom oak bookshelf 180cm", "Reupholster a vintage armchair", "Build-in desk for a small study"}},
		{Slug: "design", Budget: 50000, Titles: []string{"Logo for a neighborhood bakery", "Flyer set for a spring market", "Menu redesign for a ramen shop"}},
		{Slug: "it-support", Budget: 20000, Titles: []string{"Set up home Wi-Fi mesh", "Migrate photos to a new laptop", "Small office printer setup"}},
		{Slug: "lessons", Budget: 15000, Titles: []string{"Beginner guitar lessons, 4 sessions", "Conversational English tutor", "Intro to watercolor for kids"}},
		{Slug: "moving", Budget: 60000, Titles: []string{"Move a one-room apartment across town", "Carry a piano to the second floor"}},
		{Slug: "photography", Budget: 40000, Titles: []string{"Product photos for 20 handmade mugs", "Family portrait session in the park"}},
	}

	var posts []seedPost
	for _, c := range categories {
		for i, t := range c.Titles {
			posts = append(posts, seedPost{
				Title:    t,
				Category: c.Slug,
				Budget:   c.Budget + int64(i*5000),
			})
		}
	}
	return posts
}

func picsumURL(slug string, postIndex, k int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d-%d/600/600", slug, postIndex, k)
}

func ptr(v int64) *int64 {
	return &v
}
