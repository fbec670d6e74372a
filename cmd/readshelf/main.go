// Package main provides the interactive ReadShelf shell: a terminal front
// end over the catalog, feed, and insights engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/do/v2"

	"github.com/readshelfapp/readshelf-server/internal/catalog"
	"github.com/readshelfapp/readshelf-server/internal/di"
	"github.com/readshelfapp/readshelf-server/internal/di/providers"
	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/feed"
	"github.com/readshelfapp/readshelf-server/internal/googlebooks"
	"github.com/readshelfapp/readshelf-server/internal/insights"
	"github.com/readshelfapp/readshelf-server/internal/logger"
	"github.com/readshelfapp/readshelf-server/internal/search"
)

func main() {
	injector := di.NewContainer()

	ctx := context.Background()
	if err := di.Bootstrap(ctx, injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	shell := &shell{
		store:      do.MustInvoke[*providers.StoreHandle](injector).Store,
		searchCtl:  do.MustInvoke[*providers.SearchControllerHandle](injector).Controller,
		catalogSvc: do.MustInvoke[*catalog.Service](injector),
		bookView:   do.MustInvoke[*catalog.View](injector),
		feedView:   do.MustInvoke[*feed.View](injector),
		insights:   do.MustInvoke[*insights.Service](injector),
		log:        log,
	}

	shell.run(ctx)

	log.Info("shutting down")
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

type shell struct {
	store      storeAPI
	searchCtl  *search.Controller
	catalogSvc *catalog.Service
	bookView   *catalog.View
	feedView   *feed.View
	insights   *insights.Service
	log        *logger.Logger

	results    []search.Result
	bookLoaded bool
}

// storeAPI is the slice of the store the shell reads directly.
type storeAPI interface {
	ListBooks(ctx context.Context) ([]*domain.Book, error)
}

func (s *shell) run(ctx context.Context) {
	fmt.Println("ReadShelf. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			s.printHelp()
		case "search":
			s.doSearch(ctx, arg)
		case "add":
			s.doAdd(ctx, arg)
		case "books":
			s.doBooks(ctx)
		case "open":
			s.doOpen(ctx, arg)
		case "rate":
			s.doRate(ctx, arg)
		case "status":
			s.doStatus(ctx, arg)
		case "note":
			s.doNote(ctx, arg)
		case "notes":
			s.doNotes(arg)
		case "share":
			s.doShare(ctx, arg)
		case "rmnote":
			s.doDeleteNote(ctx, arg)
		case "rmbook":
			s.doDeleteBook(ctx)
		case "log":
			s.doLog(ctx, arg)
		case "totals":
			s.doTotals(ctx)
		case "feed":
			s.doFeed(ctx)
		case "like":
			s.doLike(ctx, arg)
		case "comment":
			s.doComment(ctx, arg)
		case "unshare":
			s.doUnshare(ctx, arg)
		case "insights":
			s.doInsights(ctx, arg)
		default:
			fmt.Printf("unknown command %q; try 'help'\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Print(`commands:
  search <query>         search Google Books
  add <n>                add result n to the catalog
  books                  list the catalog
  open <n>               open book n from the catalog
  rate <1-5>             set the open book's rating (repeat to clear)
  status <status>        set the open book's status
  note <text>            add a note to the open book
  notes [query]          list the open book's notes, grouped by day
  share <n> [text]       share note n to the feed, optionally rewriting it
  rmnote <n>             delete note n
  rmbook                 delete the open book
  log <minutes> [pages]  log a reading session
  totals                 show the open book's reading totals
  feed                   show the community feed
  like <n>               toggle like on feed entry n
  comment <n> <text>     comment on feed entry n
  unshare <n>            remove feed entry n from the feed
  insights <query>       search across all notes
  quit
`)
}

func (s *shell) doSearch(ctx context.Context, query string) {
	if query == "" {
		fmt.Println("usage: search <query>")
		return
	}

	s.searchCtl.SetQuery(ctx, query)

	// The controller debounces keystrokes; a submitted command is one
	// keystroke, so just wait out the settle delay.
	deadline := time.Now().Add(10 * time.Second)
	for {
		snap := s.searchCtl.Snapshot()
		if !snap.Fetching || time.Now().After(deadline) {
			if snap.Err != nil {
				fmt.Printf("search failed: %v\n", snap.Err)
				return
			}
			s.results = snap.Results
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if len(s.results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range s.results {
		mark := " "
		if r.InLibrary {
			mark = "*"
		}
		fmt.Printf("%2d %s %s by %s\n", i+1, mark, r.Title, r.PrimaryAuthor())
		for _, opt := range googlebooks.PurchaseOptions(&r.SearchCandidate) {
			fmt.Printf("      %-6s %-15s %s\n", opt.Kind, opt.Retailer, opt.URL)
		}
	}
}

func (s *shell) doAdd(ctx context.Context, arg string) {
	idx, ok := s.pickIndex(arg, len(s.results))
	if !ok {
		return
	}
	result := s.results[idx]

	book, key, err := s.catalogSvc.AddFromCandidate(ctx, result.SearchCandidate)
	if err != nil {
		fmt.Printf("add failed: %v\n", err)
		return
	}
	s.searchCtl.MarkAdded(key)
	s.results = s.searchCtl.Snapshot().Results
	fmt.Printf("added %q (%s)\n", book.Title, book.ID)
}

func (s *shell) doBooks(ctx context.Context) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		fmt.Printf("list failed: %v\n", err)
		return
	}
	for i, b := range books {
		fmt.Printf("%2d  %-40s %-20s %-12s ideas:%d rating:%d\n",
			i+1, b.Title, b.Author, b.Status, b.IdeasCount, b.Rating)
	}
}

func (s *shell) doOpen(ctx context.Context, arg string) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		fmt.Printf("list failed: %v\n", err)
		return
	}
	idx, ok := s.pickIndex(arg, len(books))
	if !ok {
		return
	}

	if err := s.bookView.Load(ctx, books[idx].ID); err != nil {
		fmt.Printf("open failed: %v\n", err)
		return
	}
	s.bookLoaded = true
	book := s.bookView.Book()
	fmt.Printf("%s by %s [%s] rating:%d ideas:%d\n",
		book.Title, book.Author, book.Status, book.Rating, book.IdeasCount)
}

func (s *shell) requireBook() bool {
	if !s.bookLoaded {
		fmt.Println("open a book first")
		return false
	}
	return true
}

func (s *shell) doRate(ctx context.Context, arg string) {
	if !s.requireBook() {
		return
	}
	stars, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("usage: rate <1-5>")
		return
	}
	if err := s.bookView.SetRating(ctx, stars); err != nil {
		fmt.Printf("rate failed: %v\n", err)
		return
	}
	fmt.Printf("rating: %d\n", s.bookView.Book().Rating)
}

func (s *shell) doStatus(ctx context.Context, arg string) {
	if !s.requireBook() {
		return
	}
	if err := s.bookView.SetStatus(ctx, domain.BookStatus(arg)); err != nil {
		fmt.Printf("status failed: %v\n", err)
		return
	}
	fmt.Printf("status: %s\n", s.bookView.Book().Status)
}

func (s *shell) doNote(ctx context.Context, content string) {
	if !s.requireBook() {
		return
	}
	if err := s.bookView.AddNote(ctx, content); err != nil {
		fmt.Printf("note failed: %v\n", err)
		return
	}

	// Keep the insights index current with the committed row.
	note := s.bookView.Notes()[0]
	if err := s.insights.NoteCreated(ctx, &note); err != nil {
		s.log.Warn("note indexing failed", "note_id", note.ID, "error", err)
	}
	fmt.Printf("noted (%d ideas)\n", s.bookView.Book().IdeasCount)
}

func (s *shell) doNotes(query string) {
	if !s.requireBook() {
		return
	}
	buckets := s.bookView.NotesGrouped(query, time.Now())
	if len(buckets) == 0 {
		fmt.Println("no notes")
		return
	}
	n := 0
	for _, bucket := range buckets {
		fmt.Printf("-- %s\n", bucket.Label)
		for _, note := range bucket.Items {
			n++
			shared := ""
			if note.IsShared() {
				shared = " [shared]"
			}
			fmt.Printf("%2d  %s%s\n", n, note.Content, shared)
		}
	}
}

// noteAt resolves a 1-based index into the open book's notes, newest first.
func (s *shell) noteAt(arg string) (domain.Note, bool) {
	notes := s.bookView.Notes()
	idx, ok := s.pickIndex(arg, len(notes))
	if !ok {
		return domain.Note{}, false
	}
	return notes[idx], true
}

func (s *shell) doShare(ctx context.Context, arg string) {
	if !s.requireBook() {
		return
	}
	numArg, edited, _ := strings.Cut(arg, " ")
	note, ok := s.noteAt(numArg)
	if !ok {
		return
	}
	if err := s.bookView.ShareNote(ctx, note.ID, edited); err != nil {
		fmt.Printf("share failed: %v\n", err)
		return
	}
	fmt.Println("shared")
}

func (s *shell) doDeleteNote(ctx context.Context, arg string) {
	if !s.requireBook() {
		return
	}
	note, ok := s.noteAt(arg)
	if !ok {
		return
	}
	if err := s.bookView.DeleteNote(ctx, note.ID); err != nil {
		fmt.Printf("delete failed: %v\n", err)
		return
	}
	if err := s.insights.NoteDeleted(note.ID); err != nil {
		s.log.Warn("note unindexing failed", "note_id", note.ID, "error", err)
	}
}

func (s *shell) doDeleteBook(ctx context.Context) {
	if !s.requireBook() {
		return
	}
	if err := s.bookView.DeleteBook(ctx); err != nil {
		fmt.Printf("delete failed: %v\n", err)
		return
	}
	s.bookLoaded = false
}

func (s *shell) doLog(ctx context.Context, arg string) {
	if !s.requireBook() {
		return
	}
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		fmt.Println("usage: log <minutes> [pages]")
		return
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		fmt.Println("usage: log <minutes> [pages]")
		return
	}
	pages := 0
	if len(fields) > 1 {
		if pages, err = strconv.Atoi(fields[1]); err != nil {
			fmt.Println("usage: log <minutes> [pages]")
			return
		}
	}

	if _, err := s.bookView.LogSession(ctx, minutes, pages); err != nil {
		fmt.Printf("log failed: %v\n", err)
		return
	}
	fmt.Println("session logged")
}

func (s *shell) doTotals(ctx context.Context) {
	if !s.requireBook() {
		return
	}
	totals, err := s.bookView.ReadingTotals(ctx)
	if err != nil {
		fmt.Printf("totals failed: %v\n", err)
		return
	}
	fmt.Printf("%d sessions, %d minutes, %d pages\n",
		totals.Sessions, totals.TotalMinutes, totals.TotalPages)
}

func (s *shell) doFeed(ctx context.Context) {
	if err := s.feedView.Load(ctx); err != nil {
		fmt.Printf("feed failed: %v\n", err)
		return
	}
	entries := s.feedView.Entries()
	if len(entries) == 0 {
		fmt.Println("nothing shared yet")
		return
	}
	for i, e := range entries {
		heart := " "
		if s.feedView.Liked(e.ID) {
			heart = "♥"
		}
		fmt.Printf("%2d %s %s by %s\n     %s (likes:%d comments:%d)\n",
			i+1, heart, e.BookTitle, e.BookAuthor, e.Content, e.LikesCount, e.CommentsCount)
	}
}

// feedEntryAt resolves a 1-based index into the loaded feed.
func (s *shell) feedEntryAt(arg string) (domain.NoteWithBook, bool) {
	entries := s.feedView.Entries()
	idx, ok := s.pickIndex(arg, len(entries))
	if !ok {
		return domain.NoteWithBook{}, false
	}
	return entries[idx], true
}

func (s *shell) doLike(ctx context.Context, arg string) {
	entry, ok := s.feedEntryAt(arg)
	if !ok {
		return
	}
	if err := s.feedView.ToggleLike(ctx, entry.ID); err != nil {
		fmt.Printf("like failed: %v\n", err)
	}
}

func (s *shell) doComment(ctx context.Context, arg string) {
	numArg, text, _ := strings.Cut(arg, " ")
	entry, ok := s.feedEntryAt(numArg)
	if !ok {
		return
	}
	if err := s.feedView.AddComment(ctx, entry.ID, text); err != nil {
		fmt.Printf("comment failed: %v\n", err)
		return
	}
	comments, err := s.feedView.Comments(ctx, entry.ID)
	if err == nil {
		for _, c := range comments {
			fmt.Printf("  %s: %s\n", c.AuthorName, c.Content)
		}
	}
}

func (s *shell) doUnshare(ctx context.Context, arg string) {
	entry, ok := s.feedEntryAt(arg)
	if !ok {
		return
	}
	if err := s.feedView.Unshare(ctx, entry.ID); err != nil {
		fmt.Printf("unshare failed: %v\n", err)
	}
}

func (s *shell) doInsights(ctx context.Context, query string) {
	if query == "" {
		fmt.Println("usage: insights <query>")
		return
	}
	groups, err := s.insights.Search(ctx, query, 50)
	if err != nil {
		fmt.Printf("insights failed: %v\n", err)
		return
	}
	if len(groups) == 0 {
		fmt.Println("no matching notes")
		return
	}
	for _, group := range groups {
		fmt.Printf("%s by %s\n", group.BookTitle, group.BookAuthor)
		for _, hit := range group.Notes {
			fmt.Printf("  %s\n", hit.Content)
		}
	}
}

// pickIndex parses a 1-based index argument against a list length.
func (s *shell) pickIndex(arg string, length int) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > length {
		fmt.Printf("pick a number between 1 and %d\n", length)
		return 0, false
	}
	return n - 1, true
}
