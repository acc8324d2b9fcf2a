// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scrape

// analysisJS collects title, description, font, colors and region excerpts.
// Accents are heading text colors followed by button background colors,
// de-duplicated.
const analysisJS = `() => {
	const colorsOf = (el) => {
		const style = window.getComputedStyle(el);
		return { bg: style.backgroundColor, text: style.color };
	};
	const excerpt = (selector, max, fallback) => {
		const el = document.querySelector(selector);
		return el ? (el.innerText || '').substring(0, max) : fallback;
	};

	const body = colorsOf(document.body);
	const headings = Array.from(document.querySelectorAll('h1, h2, h3')).slice(0, 3).map(colorsOf);
	const buttons = Array.from(document.querySelectorAll('button, .btn, a[class*="btn"]')).slice(0, 3).map(colorsOf);
	const meta = document.querySelector('meta[name="description"]');

	return {
		title: document.title || '',
		description: (meta && meta.content) || '',
		font: window.getComputedStyle(document.body).fontFamily || '',
		colors: {
			background: body.bg,
			text: body.text,
			accents: [...new Set([...headings.map(c => c.text), ...buttons.map(c => c.bg)])],
		},
		structure: {
			nav: excerpt('nav, header', 200, 'Navigation bar'),
			hero: excerpt('section:first-of-type, main > div:first-child, header + div', 300, 'Hero section'),
			headings: Array.from(document.querySelectorAll('h1, h2')).map(h => h.innerText || '').slice(0, 5),
			footer: excerpt('footer', 100, 'Footer'),
		},
	};
}`

// imagesJS lists every <img> with its resolved source and rendered size.
// Lazy-loaded images fall back to data-src and data-lazy-src.
const imagesJS = `() => Array.from(document.querySelectorAll('img')).map(img => ({
	src: img.src || img.dataset.src || img.getAttribute('data-lazy-src') || '',
	alt: img.alt || '',
	width: img.naturalWidth || img.width || 0,
	height: img.naturalHeight || img.height || 0,
}))`
