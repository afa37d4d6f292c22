package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/money"
)

// DecodeCatalog parses a JSON array of products. Prices may be numbers or
// display strings such as "₹80"; a currency found in the price wins over the
// currency field, and DefaultCurrency fills the rest.
func DecodeCatalog(data []byte) ([]Product, error) {
	var (
		out  []Product
		seen = make(map[string]struct{})
	)
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product #%d", len(out))
		}
		if _, ok := seen[p.ID]; ok {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return out, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	p := Product{InStock: true}
	var currency string
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			var raw string
			switch d.Next() {
			case jx.Number:
				var n jx.Num
				n, err = d.Num()
				raw = n.String()
			default:
				raw, err = d.Str()
			}
			if err != nil {
				return err
			}
			var cur string
			p.Price, cur, err = money.Parse(raw)
			if cur != "" {
				currency = cur
			}
		case "currency":
			var cur string
			cur, err = d.Str()
			if currency == "" {
				currency = cur
			}
		case "image":
			p.Image, err = d.Str()
		case "rating":
			p.Rating, err = d.Int()
		case "reviews":
			p.Reviews, err = d.Int()
		case "isNew":
			p.IsNew, err = d.Bool()
		case "description":
			p.Description, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "color":
			p.Color, err = d.Str()
		case "size":
			p.Size, err = d.Str()
		case "inStock":
			p.InStock, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return Product{}, err
	}

	if p.ID == "" || p.Name == "" {
		return Product{}, errors.New("id and name are required")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return Product{}, errors.Errorf("rating %d out of range", p.Rating)
	}
	if currency == "" {
		currency = money.DefaultCurrency
	}
	p.Currency = currency
	return p, nil
}
