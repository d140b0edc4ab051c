// Package coder turns Markdown articles into CMS-ready HTML: conversion,
// CMS formatting, asset and internal-link injection, metadata and schema.
package coder

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// CMSOpenCart is the OpenCart target. Comparison is case-insensitive.
const CMSOpenCart = "OpenCart"

// OpenCart wrapper and element classes.
const (
	imgWrapperClass   = "img-responsive"
	tableWrapperClass = "table-responsive"
)

var openCartTableClasses = []string{"table", "table-bordered", "table-hover"}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// IsOpenCart reports whether cms names OpenCart.
func IsOpenCart(cms string) bool {
	return strings.EqualFold(strings.TrimSpace(cms), CMSOpenCart)
}

// ConvertToHTML renders Markdown and applies reference table classes and
// CMS-specific formatting.
func ConvertToHTML(md, cms, referenceHTML string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", &Error{Op: "convert", Message: "markdown conversion failed", Cause: err}
	}

	root, err := parseFragment("convert", buf.String())
	if err != nil {
		return "", err
	}

	if classes := referenceTableClasses(referenceHTML); len(classes) > 0 {
		for _, table := range findAll(root, "table") {
			setAttr(table, "class", strings.Join(classes, " "))
		}
	}

	if IsOpenCart(cms) {
		formatOpenCart(root)
	}

	return renderFragment("convert", root)
}

// referenceTableClasses returns the classes of the first table in ref.
func referenceTableClasses(ref string) []string {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ref))
	if err != nil {
		return nil
	}
	class, _ := doc.Find("table").First().Attr("class")
	return strings.Fields(class)
}

func formatOpenCart(root *html.Node) {
	for _, img := range findAll(root, "img") {
		if wrappedIn(img, imgWrapperClass) {
			continue
		}
		wrapInDiv(img, imgWrapperClass)
		addClasses(img, imgWrapperClass)
	}

	for _, table := range findAll(root, "table") {
		if wrappedIn(table, tableWrapperClass) {
			continue
		}
		wrapInDiv(table, tableWrapperClass)
		addClasses(table, openCartTableClasses...)
	}

	removeAll(root, "script", "iframe")
}

// ValidateHTML strips scripts and styles. OpenCart output also loses iframes.
func ValidateHTML(fragment, cms string) (string, error) {
	root, err := parseFragment("validate", fragment)
	if err != nil {
		return "", err
	}
	removeAll(root, "script", "style")
	if IsOpenCart(cms) {
		removeAll(root, "iframe")
	}
	return renderFragment("validate", root)
}
