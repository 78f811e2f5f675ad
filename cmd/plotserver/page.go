package main

const pageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Orders: {{.Region}}</title></head>
<body>
<h1>Orders: {{.Region}}</h1>
<figure>{{.Line}}<figcaption>Inline SVG</figcaption></figure>
<figure><img src="{{.Bars}}" alt="orders"><figcaption>Base64 PNG</figcaption></figure>
<ul>
  <li><a href="/plots/{{.Region}}/bars.png">bars.png</a></li>
  <li><a href="/plots/{{.Region}}/bars.jpeg">bars.jpeg (download)</a></li>
  <li><a href="/plots/{{.Region}}/bars.small.png">bars.small.png</a></li>
  <li><a href="/plots/{{.Region}}/line.svgz">line.svgz</a></li>
  <li><a href="/plots/{{.Region}}/line.png">line.png</a></li>
</ul>
</body>
</html>
`
