package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tradepost/internal/domain"
	applog "tradepost/internal/log"
	"tradepost/internal/market"
	"tradepost/internal/validate"
)

// Multi-line payloads end with this line so clients know where to stop reading.
const sentinel = "END"

type session struct {
	sid    string
	auth   *Auth
	market *market.Market
	user   *domain.User
}

func (s *session) run(rw io.ReadWriter) {
	w := bufio.NewWriter(rw)
	reply(w, []string{"OK tradepost ready"})

	sc := bufio.NewScanner(rw)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines, quit := s.dispatch(line)
		reply(w, lines)
		if quit {
			return
		}
	}
}

func reply(w *bufio.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	w.Flush()
}

func (s *session) dispatch(line string) ([]string, bool) {
	f := strings.Fields(line)
	cmd := strings.ToLower(f[0])

	switch cmd {
	case "quit", "exit":
		return []string{"goodbye"}, true
	case "help":
		return s.help(), false
	case "login":
		return s.login(f[1:]), false
	}

	if s.user == nil {
		return []string{"ERROR: log in first"}, false
	}

	switch cmd {
	case "view":
		if len(f) >= 2 {
			switch strings.ToLower(f[1]) {
			case "credits":
				return s.viewCredits(), false
			case "accounts":
				return s.viewAccounts(), false
			case "items":
				return s.viewItems(), false
			case "history":
				return s.viewHistory(), false
			case "transactions":
				return s.viewTransactions(), false
			}
		}
		return usage("view credits|accounts|items|history|transactions"), false
	case "buy":
		return s.buy(f[1:]), false
	case "top":
		if len(f) >= 2 {
			switch strings.ToLower(f[1]) {
			case "up":
				return s.topUp(f[2:]), false
			case "sellers":
				return s.topSellers(f[2:]), false
			}
		}
		return usage("top up <amount> | top sellers [n]"), false
	case "withdraw":
		return s.withdraw(f[1:]), false
	case "add":
		return s.add(f[1:]), false
	case "complete":
		return s.complete(f[1:]), false
	case "transfer":
		return s.transfer(f[1:]), false
	}
	return []string{"ERROR: unknown command (try help)"}, false
}

func usage(u string) []string {
	return []string{"ERROR: usage: " + u}
}

// fail maps a core error to a single protocol error line. Persistence
// failures are logged with their cause but reported generically.
func (s *session) fail(action string, err error) []string {
	if errors.Is(err, market.ErrPersistence) {
		applog.Error(s.sid, action, err, nil)
		return []string{"ERROR: " + market.ErrPersistence.Error()}
	}
	applog.Info(s.sid, action+".reject", map[string]any{"err": err.Error()})
	return []string{"ERROR: " + err.Error()}
}

func (s *session) help() []string {
	lines := []string{
		"login <user> <password>",
		"view credits | view accounts | view items",
		"buy <item> <qty>",
		"top up <amount> | withdraw <amount>",
		"view history",
		"transfer <from> <to> <amount>",
		"add <item> <price> <qty>            (sellers)",
		"complete <buyer> <id> <delivered|unfulfilled>  (sellers)",
		"view transactions                   (sellers)",
		"top sellers [n]",
		"quit",
	}
	return append(lines, sentinel)
}

func (s *session) login(args []string) []string {
	if len(args) != 2 {
		return usage("login <user> <password>")
	}
	userID, ok := validate.UserID(args[0])
	if !ok {
		return []string{"ERROR: " + ErrBadCreds.Error()}
	}
	u, err := s.auth.Login(userID, args[1])
	if err != nil {
		applog.Security(s.sid, "auth.login.fail", map[string]any{"user": userID})
		return []string{"ERROR: " + ErrBadCreds.Error()}
	}
	s.user = u
	applog.Audit(s.sid, "auth.login.success", map[string]any{"user": u.ID, "role": u.Role})
	return []string{fmt.Sprintf("welcome %s role=%s account=%d", u.Name, u.Role, u.AccountID)}
}

func (s *session) viewCredits() []string {
	bal, err := s.market.Ledger.Balance(s.user.AccountID)
	if err != nil {
		return s.fail("credits.view", err)
	}
	return []string{"balance=" + bal.String()}
}

func (s *session) viewAccounts() []string {
	var lines []string
	for _, id := range s.market.Ledger.OwnedBy(s.user.ID) {
		bal, err := s.market.Ledger.Balance(id)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("account=%d balance=%s", id, bal))
	}
	if lines == nil {
		lines = []string{"no accounts"}
	}
	return append(lines, sentinel)
}

func (s *session) viewItems() []string {
	var lines []string
	for _, it := range s.market.Catalog.List() {
		lines = append(lines, fmt.Sprintf("%-20s price=%-10s quantity=%-5d seller=%s",
			it.Name, it.Price, it.Quantity, it.SellerID))
	}
	if lines == nil {
		lines = []string{"no items"}
	}
	return append(lines, sentinel)
}

func (s *session) buy(args []string) []string {
	if s.user.IsSeller() {
		return []string{"ERROR: " + market.ErrUnauthorized.Error()}
	}
	if len(args) < 2 {
		return usage("buy <item> <qty>")
	}
	qty, ok := validate.Qty(args[len(args)-1])
	if !ok {
		return s.fail("purchase.buy", market.ErrInvalidQuantity)
	}
	name, ok := validate.ItemName(strings.Join(args[:len(args)-1], " "))
	if !ok {
		return s.fail("purchase.buy", market.ErrItemNotFound)
	}
	p, err := s.market.Buy(s.user, name, qty)
	if err != nil {
		return s.fail("purchase.buy", err)
	}
	return []string{fmt.Sprintf("purchase=%d reserved=%s", p.ID, p.TotalCost)}
}

func (s *session) topUp(args []string) []string {
	if len(args) != 1 {
		return usage("top up <amount>")
	}
	amt, ok := validate.Amount(args[0])
	if !ok {
		return s.fail("credits.topup", market.ErrInvalidAmount)
	}
	bal, err := s.market.Ledger.Deposit(s.user.AccountID, amt)
	if err != nil {
		return s.fail("credits.topup", err)
	}
	applog.Audit(s.sid, "credits.topup", map[string]any{"user": s.user.ID, "amount": amt.String()})
	return []string{"balance=" + bal.String()}
}

func (s *session) withdraw(args []string) []string {
	if len(args) != 1 {
		return usage("withdraw <amount>")
	}
	amt, ok := validate.Amount(args[0])
	if !ok {
		return s.fail("credits.withdraw", market.ErrInvalidAmount)
	}
	if err := s.market.Ledger.Withdraw(s.user.AccountID, amt); err != nil {
		return s.fail("credits.withdraw", err)
	}
	bal, err := s.market.Ledger.Balance(s.user.AccountID)
	if err != nil {
		return s.fail("credits.withdraw", err)
	}
	applog.Audit(s.sid, "credits.withdraw", map[string]any{"user": s.user.ID, "amount": amt.String()})
	return []string{"balance=" + bal.String()}
}

func (s *session) add(args []string) []string {
	if !s.user.IsSeller() {
		return []string{"ERROR: " + market.ErrUnauthorized.Error()}
	}
	if len(args) < 3 {
		return usage("add <item> <price> <qty>")
	}
	qty, okQ := validate.Qty(args[len(args)-1])
	price, okP := validate.Amount(args[len(args)-2])
	name, okN := validate.ItemName(strings.Join(args[:len(args)-2], " "))
	if !okQ {
		return s.fail("catalog.add", market.ErrInvalidQuantity)
	}
	if !okP {
		return s.fail("catalog.add", market.ErrInvalidAmount)
	}
	if !okN {
		return usage("add <item> <price> <qty>")
	}
	it, err := s.market.Catalog.Upsert(s.user.ID, name, price, qty)
	if err != nil {
		return s.fail("catalog.add", err)
	}
	applog.Audit(s.sid, "catalog.add", map[string]any{"seller": s.user.ID, "item": it.Name, "qty": qty})
	return []string{fmt.Sprintf("added %s price=%s quantity=%d", it.Name, it.Price, it.Quantity)}
}

func (s *session) complete(args []string) []string {
	if !s.user.IsSeller() {
		return []string{"ERROR: " + market.ErrUnauthorized.Error()}
	}
	if len(args) != 3 {
		return usage("complete <buyer> <purchaseId> <delivered|unfulfilled>")
	}
	buyer, ok := validate.UserID(args[0])
	if !ok {
		return s.fail("purchase.complete", market.ErrPurchaseNotFound)
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return s.fail("purchase.complete", market.ErrPurchaseNotFound)
	}
	outcome := market.Outcome(strings.ToLower(args[2]))
	p, err := s.market.Complete(buyer, id, outcome, s.user)
	if err != nil {
		return s.fail("purchase.complete", err)
	}
	if outcome == market.OutcomeDelivered {
		return []string{fmt.Sprintf("fulfilled %s/%d paid=%s", p.BuyerID, p.ID, p.TotalCost)}
	}
	return []string{fmt.Sprintf("unfulfilled %s/%d refunded=%s", p.BuyerID, p.ID, p.TotalCost)}
}

func (s *session) viewHistory() []string {
	hist := s.market.Journal.History(s.user.ID)
	if len(hist) == 0 {
		return []string{"no purchases", sentinel}
	}
	lines := []string{fmt.Sprintf("%-4s %-20s %-5s %-10s %-12s %-12s %s",
		"id", "item", "qty", "total", "status", "seller", "date")}
	for _, p := range hist {
		lines = append(lines, fmt.Sprintf("%-4d %-20s %-5d %-10s %-12s %-12s %s",
			p.ID, p.ItemName, p.Quantity, p.TotalCost, p.Status, p.SellerID,
			p.CreatedAt.Format("2006-01-02 15:04")))
	}
	return append(lines, sentinel)
}

func (s *session) viewTransactions() []string {
	if !s.user.IsSeller() {
		return []string{"ERROR: " + market.ErrUnauthorized.Error()}
	}
	pending := s.market.Journal.PendingAll()
	if len(pending) == 0 {
		return []string{"no pending purchases", sentinel}
	}
	lines := []string{fmt.Sprintf("%-12s %-4s %-20s %-5s %-10s %s",
		"buyer", "id", "item", "qty", "total", "date")}
	for _, p := range pending {
		lines = append(lines, fmt.Sprintf("%-12s %-4d %-20s %-5d %-10s %s",
			p.BuyerID, p.ID, p.ItemName, p.Quantity, p.TotalCost,
			p.CreatedAt.Format("2006-01-02 15:04")))
	}
	return append(lines, sentinel)
}

func (s *session) topSellers(args []string) []string {
	n := 5
	if len(args) == 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	ranks := s.market.TopSellers(n)
	if len(ranks) == 0 {
		return []string{"no fulfilled purchases", sentinel}
	}
	lines := make([]string, 0, len(ranks)+1)
	for i, r := range ranks {
		lines = append(lines, fmt.Sprintf("%d. %s fulfilled=%d", i+1, r.SellerID, r.Fulfilled))
	}
	return append(lines, sentinel)
}

func (s *session) transfer(args []string) []string {
	if len(args) != 3 {
		return usage("transfer <from> <to> <amount>")
	}
	from, okF := validate.AccountID(args[0])
	to, okT := validate.AccountID(args[1])
	amt, okA := validate.Amount(args[2])
	if !okF || !okT {
		return s.fail("credits.transfer", market.ErrAccountNotFound)
	}
	if !okA {
		return s.fail("credits.transfer", market.ErrInvalidAmount)
	}
	if err := s.market.Ledger.Transfer(s.user.ID, from, to, amt); err != nil {
		return s.fail("credits.transfer", err)
	}
	applog.Audit(s.sid, "credits.transfer", map[string]any{
		"user": s.user.ID, "from": from, "to": to, "amount": amt.String(),
	})
	return []string{fmt.Sprintf("transferred %s from %d to %d", amt, from, to)}
}
