// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/nfp"
)

// numberLayout is the numeric part of a number format section.
type numberLayout struct {
	intZeros    int
	minDecimals int
	maxDecimals int
	thousands   bool
	percent     int
}

// FormatNumber renders v with a spreadsheet number format code such as
// "0.00", "#,##0", "0%" or "$#,##0.00". Up to four sections separated by
// semicolons select the positive, negative and zero formats. An empty or
// "General" code renders the shortest decimal text.
func FormatNumber(v float64, code string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatNumberText(v)
	}
	if strings.TrimSpace(code) == "" || strings.EqualFold(strings.TrimSpace(code), "general") {
		return formatNumberText(v)
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 {
		return formatNumberText(v)
	}

	// A dedicated negative section carries its own sign decoration.
	section, signed := pickSection(sections, v)
	sign := signed && v < 0
	abs := math.Abs(v)

	layout := parseLayout(section.Items)
	if layout == nil {
		// text-only sections such as the "-" of an accounting zero
		if text := literalText(section.Items); text != "" {
			return text
		}
		return formatNumberText(v)
	}
	for i := 0; i < layout.percent; i++ {
		abs *= 100
	}
	digits := layout.render(abs)
	if strings.Trim(digits, "0.,") == "" {
		sign = false
	}

	var sb strings.Builder
	if sign {
		sb.WriteByte('-')
	}
	wrote := false
	for _, item := range section.Items {
		switch item.TType {
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder,
			nfp.TokenTypeDigitalPlaceHolder, nfp.TokenTypeDecimalPoint,
			nfp.TokenTypeThousandsSeparator:
			if !wrote {
				sb.WriteString(digits)
				wrote = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		case nfp.TokenTypeLiteral, nfp.TokenTypeCurrencyLanguage:
			if item.TType == nfp.TokenTypeCurrencyLanguage {
				sb.WriteString(currencySymbol(item.TValue))
				continue
			}
			sb.WriteString(item.TValue)
		}
	}
	return sb.String()
}

func pickSection(sections []nfp.Section, v float64) (nfp.Section, bool) {
	for _, s := range sections {
		switch {
		case v < 0 && s.Type == nfp.TokenSectionNegative:
			return s, false
		case v == 0 && s.Type == nfp.TokenSectionZero:
			return s, false
		}
	}
	return sections[0], true
}

// parseLayout collects the digit placeholders of a section. It returns nil
// when the section has no numeric placeholder at all.
func parseLayout(items []nfp.Token) *numberLayout {
	var (
		layout     numberLayout
		afterPoint bool
		found      bool
	)
	for _, item := range items {
		switch item.TType {
		case nfp.TokenTypeDecimalPoint:
			afterPoint = true
			found = true
		case nfp.TokenTypeThousandsSeparator:
			if !afterPoint {
				layout.thousands = true
			}
		case nfp.TokenTypePercent:
			layout.percent++
		case nfp.TokenTypeZeroPlaceHolder:
			found = true
			if afterPoint {
				layout.minDecimals += len(item.TValue)
				layout.maxDecimals += len(item.TValue)
			} else {
				layout.intZeros += len(item.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
			found = true
			if afterPoint {
				layout.maxDecimals += len(item.TValue)
			}
		}
	}
	if !found {
		return nil
	}
	return &layout
}

func (l *numberLayout) render(abs float64) string {
	text := strconv.FormatFloat(abs, 'f', l.maxDecimals, 64)
	intPart, frac, _ := strings.Cut(text, ".")
	for len(frac) > l.minDecimals && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	if intPart == "0" && l.intZeros == 0 {
		intPart = ""
	}
	for len(intPart) < l.intZeros {
		intPart = "0" + intPart
	}
	if l.thousands {
		intPart = groupThousands(intPart)
	}
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

func literalText(items []nfp.Token) string {
	var sb strings.Builder
	for _, item := range items {
		switch item.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(item.TValue)
		case nfp.TokenTypeCurrencyLanguage:
			sb.WriteString(currencySymbol(item.TValue))
		}
	}
	return sb.String()
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	head := len(s) % 3
	if head > 0 {
		sb.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// currencySymbol extracts the symbol of a "[$€-x-euro]" style token.
func currencySymbol(token string) string {
	s := strings.TrimSuffix(strings.TrimPrefix(token, "[$"), "]")
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	return s
}
