// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generate

import (
	"fmt"
	"strings"

	"sitecraft/internal/scrape"
	"sitecraft/internal/theme"
)

// multiFileInstruction is the system prompt for three-file generation.
const multiFileInstruction = `You are an expert frontend web developer who creates modern, visually polished websites.

You MUST respond with a JSON object of this exact shape:
{
  "files": {
    "index.html": "<complete HTML document>",
    "style.css": "<complete stylesheet>",
    "script.js": "<JavaScript for interactivity>"
  },
  "summary": "<one sentence describing the site>"
}

HTML requirements:
- Semantic HTML5 with a <nav>, a hero section, content sections and a <footer>
- Link the stylesheet with <link rel="stylesheet" href="style.css">
- Load the script with <script src="script.js"></script> before </body>

CSS requirements:
- Declare every color as a CSS variable in :root and use only those variables
- A hero section with a gradient or solid background and large, readable headings
- Buttons with solid backgrounds, padding, border-radius and hover states
- Cards with a surface background, border-radius, padding and a subtle shadow
- Sections with generous vertical padding
- Images with max-width: 100%, object-fit: cover and rounded corners
- A sticky navigation bar with a solid background
- Smooth transitions and subtle entrance animations
- Responsive layouts using CSS grid or flexbox with media queries
- A clear typographic scale with comfortable line height

NEVER use: transparent, rgba(0,0,0,0), or any color with zero alpha for backgrounds or text.

DO NOT include markdown. Return ONLY valid JSON.`

// codeInstruction is the system prompt for single-file edits.
const codeInstruction = `You are an expert frontend web developer.

Guidelines:
- Keep the existing structure, class names and variables unless the instruction asks to change them
- Use CSS variables for colors, flexbox or grid for layout and media queries for responsiveness
- Prefer solid colors; never use transparent or zero-alpha colors for backgrounds or text
- Write clean, modern, accessible code

Return only the code. Do not wrap it in markdown code fences and do not add explanations.`

// singlePageInstruction is the system prompt for one-file sites.
const singlePageInstruction = `You are an expert frontend web developer who creates modern, visually polished websites.

Produce ONE complete HTML document with the CSS in a <style> element and the JavaScript in a <script> element.

Guidelines:
- Declare colors as CSS variables in :root
- A sticky navigation bar, a hero with a gradient or solid background and a footer with social links
- Buttons and cards with rounded corners, shadows and hover effects
- Responsive layout with flexbox or grid and media queries
- Load fonts from Google Fonts
- NEVER use transparent, rgba(0,0,0,0), or any color with zero alpha for backgrounds or text

Return only the HTML document. Do not wrap it in markdown code fences and do not add explanations.`

const chatBaseInstruction = `You are the Sitecraft assistant. Sitecraft generates complete websites (HTML, CSS and JavaScript) from a short description, edits existing code on request, explains code and recreates the look of live websites from their URL.

Answer in a friendly, conversational tone. Keep answers short: two or three sentences unless the user asks for detail. When a question is about building a site, point the user to the matching Sitecraft feature.`

// chatInstruction returns the chat system prompt with the user's current
// page appended when known.
func chatInstruction(page *PageContext) string {
	if page == nil || (page.Name == "" && page.URL == "") {
		return chatBaseInstruction
	}
	var b strings.Builder
	b.WriteString(chatBaseInstruction)
	fmt.Fprintf(&b, "\n\nCURRENT PAGE CONTEXT: The user is currently on the %q page (%s).", page.Name, page.URL)
	if page.Description != "" {
		fmt.Fprintf(&b, " %s", page.Description)
	}
	b.WriteString(" Use this to tailor your answer when relevant.")
	return b.String()
}

func paletteBlock(title string, p theme.Palette, description string) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "- Background: %s\n", p.Background)
	fmt.Fprintf(&b, "- Surface/Cards: %s\n", p.Surface)
	fmt.Fprintf(&b, "- Primary: %s\n", p.Primary)
	fmt.Fprintf(&b, "- Secondary: %s\n", p.Secondary)
	fmt.Fprintf(&b, "- Accent: %s\n", p.Accent)
	fmt.Fprintf(&b, "- Text: %s\n", p.Text)
	fmt.Fprintf(&b, "- Muted Text: %s\n", p.TextMuted)
	fmt.Fprintf(&b, "- Gradient: %s\n", p.Gradient)
	if description != "" {
		fmt.Fprintf(&b, "- Theme Description: %s\n", description)
	}
	return b.String()
}

// projectPrompt builds the user prompt for a full-site generation.
func projectPrompt(prompt, projectName string, p theme.Palette, description string) string {
	if strings.TrimSpace(projectName) == "" {
		projectName = "My Website"
	}
	return fmt.Sprintf(`Create a complete frontend website based on this description: "%s"

Project name: %s

%s
REQUIREMENTS:
1. Use the EXACT hex values above as CSS variables in :root
2. The body background must be the Background color and body text the Text color
3. Cards and panels use the Surface color
4. Buttons and links use Primary, with Secondary for hover states
5. The hero section uses the Gradient or the Primary color as its background
6. Every section has visible contrast between text and background
7. Include a navigation bar, a hero, at least three content sections and a footer
8. Use https://picsum.photos placeholder images where images help the design
9. Make the layout fully responsive
10. NEVER use transparent, rgba(0,0,0,0), or colors with 0 alpha

Remember to return ONLY a valid JSON object with the files.`,
		prompt, projectName, paletteBlock("REQUIRED COLOR THEME (use these EXACT hex values):", p, description))
}

// singlePagePrompt builds the user prompt for a one-file site.
func singlePagePrompt(siteType, projectName string, sections []string, colors string) string {
	if strings.TrimSpace(siteType) == "" {
		siteType = "landing page"
	}
	if strings.TrimSpace(projectName) == "" {
		projectName = "My Website"
	}
	sectionList := "hero, features, call-to-action, footer"
	if len(sections) > 0 {
		sectionList = strings.Join(sections, ", ")
	}
	if strings.TrimSpace(colors) == "" {
		colors = "Dark theme with blue and purple gradient accents"
	}
	return fmt.Sprintf(`Create a complete, modern %s website for %q.

Include these sections: %s

Color theme: %s

Make it fully responsive, with smooth hover effects and animations.`,
		siteType, projectName, sectionList, strings.TrimSpace(colors))
}

// modifyPrompt builds the user prompt for a single-file edit.
func modifyPrompt(code, instruction, fileType string) string {
	if fileType == "" {
		fileType = "HTML"
	}
	return fmt.Sprintf("Here is my current %s code:\n\n```\n%s\n```\n\nPlease modify this code according to this instruction: %q\n\nReturn ONLY the modified complete code, no explanations.",
		fileType, code, instruction)
}

// explainPrompt builds the explanation prompt. Detailed mode asks for
// line-referenced sections.
func explainPrompt(code, fileType string, detailed bool) string {
	if fileType == "" {
		fileType = "code"
	}
	if detailed {
		return fmt.Sprintf(`You are a friendly coding teacher. Explain this %s code (%s lines) to a beginner.

`+"```\n%s\n```"+`

Respond with a JSON object of this exact shape:
{
  "summary": "Two or three sentences on what the code does",
  "sections": [
    {
      "title": "Section name",
      "lines": "1-10",
      "explanation": "What this part does and how",
      "concepts": ["concept one", "concept two"]
    }
  ],
  "keyTakeaways": ["Most important thing to remember"],
  "tips": ["A suggestion to improve or extend the code"]
}

Return ONLY the JSON object.`, fileType, lineCount(code), code)
	}
	return fmt.Sprintf(`Briefly explain this %s code to a beginner.

`+"```\n%s\n```"+`

Respond with a JSON object of this exact shape:
{
  "summary": "One or two sentences on what the code does",
  "highlights": ["Key point one", "Key point two", "Key point three"],
  "learnMore": ["A topic worth studying next"]
}

Return ONLY the JSON object.`, fileType, code)
}

// analyzePrompt builds the recreation prompt from a page analysis.
func analyzePrompt(a *scrape.Analysis, p theme.Palette, usable bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have analyzed a live website (%s). Here is what I found:\n\n", a.URL)
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "Description: %s\n", a.Description)
	fmt.Fprintf(&b, "Detected Font Family: %s\n\n", a.Font)

	if usable {
		b.WriteString("ORIGINAL WEBSITE COLORS:\n")
		fmt.Fprintf(&b, "- Background: %s\n", a.Colors.Background)
		fmt.Fprintf(&b, "- Text: %s\n", a.Colors.Text)
		fmt.Fprintf(&b, "- Accents: %s\n\n", strings.Join(a.Colors.Accents, ", "))
	} else {
		b.WriteString("The original website colors could not be properly extracted.\n\n")
	}

	b.WriteString(paletteBlock("REQUIRED COLOR PALETTE (use these EXACT values):", p, ""))

	b.WriteString("\nLAYOUT STRUCTURE:\n")
	fmt.Fprintf(&b, "- Navigation: %s\n", flatten(a.Structure.Nav))
	fmt.Fprintf(&b, "- Hero: %s\n", flatten(a.Structure.Hero))
	fmt.Fprintf(&b, "- Headings: %s\n", strings.Join(a.Structure.Headings, " | "))
	fmt.Fprintf(&b, "- Footer: %s\n\n", flatten(a.Structure.Footer))

	b.WriteString("TASK: Create a website that is roughly 60% similar to the original: keep its layout, section order, tone and font feel, but write fresh markup and styles. Use the REQUIRED COLOR PALETTE as CSS variables in :root.\n\n")

	if len(a.Images) > 0 {
		b.WriteString("EXTRACTED IMAGES (already saved next to the site):\n")
		for _, ref := range a.LocalRefs() {
			fmt.Fprintf(&b, "- %s\n", ref)
		}
		b.WriteString("Use these exact relative paths in <img src=\"...\">. DO NOT use https://picsum.photos or any other external image URL.\n\n")
	} else {
		b.WriteString("No images could be extracted. Use https://picsum.photos placeholder images where the original shows images.\n\n")
	}

	b.WriteString(`REQUIREMENTS:
1. Solid, high-contrast colors only; NEVER use transparent or rgba(0,0,0,0)
2. A sticky navigation bar, a hero section, content sections and a footer
3. Responsive layout with CSS grid or flexbox
4. Smooth hover transitions on buttons, links and cards
5. Return a JSON object with "files" containing "index.html", "style.css", and "script.js".`)

	return b.String()
}

// flatten turns multi-line page text into a single prompt line.
func flatten(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), 300)
}

// truncate shortens a string to maxLen bytes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxLen], "") + "..."
}
