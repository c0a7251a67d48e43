package pool

import (
	"math"

	"leveragePool/internal/command"
	"leveragePool/internal/model"
	"leveragePool/internal/shares"
	"leveragePool/internal/window"
)

func (x *execution) buyShares(c command.BuyShares) error {
	b, dep, err := x.ledger.Buy(book(x.st), float64(c.X), float64(c.Y))
	if err != nil {
		return err
	}
	if dep.Issued <= 0 {
		return shares.ErrTooSmall
	}
	setBook(x.st, b)

	refund := model.Pair{
		X: math.Max(0, math.Floor(float64(c.X)-dep.Used.X)),
		Y: math.Max(0, math.Floor(float64(c.Y)-dep.Used.Y)),
	}
	dust := model.Pair{
		X: float64(c.X) - dep.Used.X - refund.X,
		Y: float64(c.Y) - dep.Used.Y - refund.Y,
	}
	if err := creditLP(x.st, dust); err != nil {
		return err
	}

	x.pay(x.st.Shares.AssetID, dep.Issued)
	x.paySide(model.SideX, int64(refund.X))
	x.paySide(model.SideY, int64(refund.Y))
	x.vars["shares"] = dep.Issued
	x.vars["linear_shares"] = dep.Linear
	if dep.FromProfits.X > 0 || dep.FromProfits.Y > 0 {
		x.vars["from_profits"] = dep.FromProfits
	}
	return nil
}

func (x *execution) removeLiquidity(c command.RemoveLiquidity) error {
	var w shares.Window
	if p, err := priceOf(x.st); err == nil {
		w.Min, w.Max = window.Range(x.st.Recent, p)
	}
	b, out, err := x.ledger.Remove(book(x.st), c.Shares, c.PreferredAsset, w)
	if err != nil {
		return err
	}
	setBook(x.st, b)
	x.paySide(model.SideX, int64(out.Out.X))
	x.paySide(model.SideY, int64(out.Out.Y))
	x.vars["linear_shares"] = out.Linear
	x.vars["x"] = int64(out.Out.X)
	x.vars["y"] = int64(out.Out.Y)
	return nil
}

func (x *execution) addProfits() error {
	b, moved := x.ledger.AddProfits(book(x.st))
	if moved.X <= 0 && moved.Y <= 0 {
		return ErrNothingToAdd
	}
	setBook(x.st, b)
	x.vars["added"] = moved
	return nil
}
